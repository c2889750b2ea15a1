// Package classifier asks a language model whether a text is AI-generated and
// turns its free-text answer into a structured verdict.
package classifier

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/provenance-lab/origincheck/internal/models"
	"go.uber.org/zap"
)

const defaultTimeout = 60 * time.Second

// Credentials are the process-level API keys, used when a request carries
// no key of its own.
type Credentials struct {
	Mistral   string
	OpenAI    string
	Anthropic string
}

// For returns the configured key for p.
func (c Credentials) For(p Provider) string {
	switch p {
	case ProviderMistral:
		return strings.TrimSpace(c.Mistral)
	case ProviderOpenAI:
		return strings.TrimSpace(c.OpenAI)
	case ProviderAnthropic:
		return strings.TrimSpace(c.Anthropic)
	}
	return ""
}

// Result is a raw completion together with the model that produced it.
type Result struct {
	Model    ModelInfo
	Text     string
	Usage    *models.Usage
	Duration time.Duration
}

// Classifier routes a prompt to the backend of the requested model.
type Classifier struct {
	backends map[Provider]Backend
	creds    Credentials
	parser   *Parser
	model    string
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l.Named("Classifier")
		}
	}
}

// WithBackend replaces the backend used for p.
func WithBackend(p Provider, b Backend) Option {
	return func(c *Classifier) { c.backends[p] = b }
}

// WithJitter sets the randomness used by the fallback scorer.
func WithJitter(j Jitter) Option {
	return func(c *Classifier) { c.parser = NewParser(j) }
}

// WithDefaultModel replaces the model used for empty or unknown requests.
// Models outside the catalog are ignored.
func WithDefaultModel(id string) Option {
	return func(c *Classifier) {
		if IsAllowed(id) {
			c.model = id
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New builds a classifier with the default backends.
func New(creds Credentials, opts ...Option) *Classifier {
	c := &Classifier{
		backends: map[Provider]Backend{
			ProviderMistral:   NewOpenAIBackend(ProviderMistral, MistralBaseURL, nil),
			ProviderOpenAI:    NewOpenAIBackend(ProviderOpenAI, OpenAIBaseURL, nil),
			ProviderAnthropic: NewAnthropicBackend(""),
		},
		creds:   creds,
		parser:  NewParser(RandomJitter()),
		model:   DefaultModel,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model resolves id against the catalog, falling back to the configured
// default.
func (c *Classifier) Model(id string) ModelInfo {
	return ResolveModelOr(id, c.model)
}

// Resolve picks the model (falling back to the default) and the API key:
// the per-request key first, then the configured one.
func (c *Classifier) Resolve(model, apiKey string) (ModelInfo, string, error) {
	m := c.Model(model)
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = c.creds.For(m.Provider)
	}
	if key == "" {
		return m, "", &ClassifierError{Kind: ErrMissingCredential, Provider: m.Provider}
	}
	return m, key, nil
}

// Classify sends content to the model and returns its raw answer.
func (c *Classifier) Classify(ctx context.Context, content, model, apiKey string) (Result, error) {
	m, key, err := c.Resolve(model, apiKey)
	if err != nil {
		return Result{Model: m}, err
	}
	backend, ok := c.backends[m.Provider]
	if !ok {
		return Result{Model: m}, &ClassifierError{Kind: ErrUpstreamFailure, Provider: m.Provider, Status: http.StatusNotImplemented}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	comp, err := backend.Complete(ctx, Request{
		Model:  m.ID,
		APIKey: key,
		System: SystemPrompt(),
		User:   UserPrompt(content),
	})
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn("model call failed",
			zap.String("model", m.ID),
			zap.String("provider", string(m.Provider)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return Result{Model: m, Duration: elapsed}, err
	}
	c.logger.Debug("model answered",
		zap.String("model", m.ID),
		zap.Int("chars", len(comp.Text)),
		zap.Duration("elapsed", elapsed),
	)
	return Result{Model: m, Text: comp.Text, Usage: comp.Usage, Duration: elapsed}, nil
}

// Parse reads a raw answer, repairing missing fields with the fallback scorer.
func (c *Classifier) Parse(raw, content string) models.ClassifierVerdict {
	return c.parser.Parse(raw, content)
}
