package classifier

import "strings"

// Provider selects the completion backend for a model.
type Provider string

const (
	ProviderMistral   Provider = "mistral"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// DefaultModel is used when no model or an unknown model is requested.
const DefaultModel = "mistral-small-latest"

// ModelInfo is one entry of the model allow-list.
type ModelInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Provider Provider `json:"provider"`
}

var catalog = []ModelInfo{
	{ID: "mistral-small-latest", Name: "Mistral Small", Provider: ProviderMistral},
	{ID: "mistral-large-latest", Name: "Mistral Large", Provider: ProviderMistral},
	{ID: "mistral-medium-latest", Name: "Mistral Medium", Provider: ProviderMistral},
	{ID: "open-mistral-nemo", Name: "Mistral Nemo", Provider: ProviderMistral},
	{ID: "codestral-latest", Name: "Codestral", Provider: ProviderMistral},
	{ID: "ministral-8b-latest", Name: "Ministral 8B", Provider: ProviderMistral},
	{ID: "ministral-3b-latest", Name: "Ministral 3B", Provider: ProviderMistral},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", Provider: ProviderOpenAI},
	{ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", Provider: ProviderAnthropic},
}

// Models returns a copy of the allow-list.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a model by id.
func Lookup(id string) (ModelInfo, bool) {
	id = strings.TrimSpace(id)
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ResolveModel returns the requested model, or the default when it is empty
// or not on the allow-list.
func ResolveModel(id string) ModelInfo {
	return ResolveModelOr(id, DefaultModel)
}

// ResolveModelOr is ResolveModel with fallback tried before DefaultModel.
func ResolveModelOr(id, fallback string) ModelInfo {
	if m, ok := Lookup(id); ok {
		return m
	}
	if m, ok := Lookup(fallback); ok {
		return m
	}
	m, _ := Lookup(DefaultModel)
	return m
}

// IsAllowed reports whether id is on the allow-list.
func IsAllowed(id string) bool {
	_, ok := Lookup(id)
	return ok
}
