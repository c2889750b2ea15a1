package settings

import (
	"strings"

	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
)

const (
	// DefaultSession is used when a request carries no session header.
	DefaultSession = "demo-user"
	// SessionHeader carries the caller's session id.
	SessionHeader = "X-Session-ID"

	maskedKey = "***masked***"
)

// Notifications are the user's notification switches.
type Notifications struct {
	AnalysisComplete bool `json:"analysisComplete"`
	WeeklyReport     bool `json:"weeklyReport"`
	Promotions       bool `json:"promotions"`
}

// Settings is the per-session settings record.
type Settings struct {
	MistralAPIKey     string        `json:"mistralApiKey"`
	OpenAIAPIKey      string        `json:"openaiApiKey"`
	AnthropicAPIKey   string        `json:"anthropicApiKey"`
	HuggingFaceAPIKey string        `json:"huggingfaceApiKey"`
	DefaultModel      string        `json:"defaultModel"`
	Notifications     Notifications `json:"notifications"`
	Language          string        `json:"language"`
}

// Defaults returns the record a new session starts with.
func Defaults() Settings {
	return Settings{
		DefaultModel:  classifier.DefaultModel,
		Notifications: Notifications{AnalysisComplete: true},
		Language:      "tr",
	}
}

// KeyFor returns the stored key for p.
func (s Settings) KeyFor(p classifier.Provider) string {
	switch p {
	case classifier.ProviderMistral:
		return strings.TrimSpace(s.MistralAPIKey)
	case classifier.ProviderOpenAI:
		return strings.TrimSpace(s.OpenAIAPIKey)
	case classifier.ProviderAnthropic:
		return strings.TrimSpace(s.AnthropicAPIKey)
	}
	return ""
}

// Masked hides every stored key.
func (s Settings) Masked() Settings {
	s.MistralAPIKey = mask(s.MistralAPIKey)
	s.OpenAIAPIKey = mask(s.OpenAIAPIKey)
	s.AnthropicAPIKey = mask(s.AnthropicAPIKey)
	s.HuggingFaceAPIKey = mask(s.HuggingFaceAPIKey)
	return s
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	return maskedKey
}

// ValidationError rejects a settings update.
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

type actionRequest struct {
	Action string `json:"action"`
}
