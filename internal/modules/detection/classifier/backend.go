package classifier

import (
	"context"
	"errors"
	"net/http"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/provenance-lab/origincheck/internal/models"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
)

const (
	MistralBaseURL = "https://api.mistral.ai/v1"
	OpenAIBaseURL  = "https://api.openai.com/v1"
)

// Request is a single non-streaming completion call.
type Request struct {
	Model  string
	APIKey string
	System string
	User   string
}

// Completion is the raw model answer.
type Completion struct {
	Text  string
	Usage *models.Usage
}

// Backend sends a completion request to one provider.
type Backend interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// OpenAIBackend talks to any OpenAI-compatible chat completions endpoint.
// Mistral is served by the same backend with a different base URL.
type OpenAIBackend struct {
	provider   Provider
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIBackend builds a chat completions backend for p.
func NewOpenAIBackend(p Provider, baseURL string, httpClient *http.Client) *OpenAIBackend {
	return &OpenAIBackend{provider: p, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), httpClient: httpClient}
}

func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(req.APIKey),
		openaioption.WithMaxRetries(0),
	}
	if b.baseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(b.baseURL))
	}
	if b.httpClient != nil {
		opts = append(opts, openaioption.WithHTTPClient(b.httpClient))
	}
	if b.provider == ProviderMistral {
		opts = append(opts, openaioption.WithJSONSet("safe_prompt", false))
	}
	client := openaiclient.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(req.Model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.SystemMessage(req.System),
			openaiclient.UserMessage(req.User),
		},
		MaxTokens:   openaiclient.Int(maxTokens),
		Temperature: openaiclient.Float(temperature),
		TopP:        openaiclient.Float(topP),
	})
	if err != nil {
		var apiErr *openaiclient.Error
		if errors.As(err, &apiErr) {
			return Completion{}, statusError(b.provider, apiErr.StatusCode, err)
		}
		return Completion{}, &ClassifierError{Kind: ErrUpstreamFailure, Provider: b.provider, Err: err}
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Completion{}, &ClassifierError{Kind: ErrEmptyResponse, Provider: b.provider}
	}

	out := Completion{Text: resp.Choices[0].Message.Content}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &models.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// AnthropicBackend goes through the jetify language model abstraction.
type AnthropicBackend struct {
	baseURL string
}

// NewAnthropicBackend builds the Anthropic backend. An empty baseURL uses
// the SDK default.
func NewAnthropicBackend(baseURL string) *AnthropicBackend {
	return &AnthropicBackend{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(req.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if b.baseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(b.baseURL))
	}
	client := anthropicclient.NewClient(opts...)
	model := jetanthropic.NewLanguageModel(req.Model, jetanthropic.WithClient(client))

	// Anthropic rejects temperature and top_p together, so only temperature is sent.
	resp, err := jetai.GenerateText(
		ctx,
		[]jetapi.Message{
			&jetapi.SystemMessage{Content: req.System},
			&jetapi.UserMessage{Content: jetapi.ContentFromText(req.User)},
		},
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(maxTokens),
		jetai.WithTemperature(temperature),
	)
	if err != nil {
		var apiErr *anthropicclient.Error
		if errors.As(err, &apiErr) {
			return Completion{}, statusError(ProviderAnthropic, apiErr.StatusCode, err)
		}
		return Completion{}, &ClassifierError{Kind: ErrUpstreamFailure, Provider: ProviderAnthropic, Err: err}
	}

	var text strings.Builder
	if resp != nil {
		for _, block := range resp.Content {
			if tb, ok := block.(*jetapi.TextBlock); ok {
				text.WriteString(tb.Text)
			}
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return Completion{}, &ClassifierError{Kind: ErrEmptyResponse, Provider: ProviderAnthropic}
	}
	return Completion{Text: text.String()}, nil
}
