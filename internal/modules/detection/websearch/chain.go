// Package websearch looks for submitted text on the web through an ordered
// chain of providers. The first provider with a hit wins; provider failures
// are logged and treated as a miss.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/provenance-lab/origincheck/internal/modules/detection/corpus"
	"go.uber.org/zap"
)

// Provider is one lookup strategy.
type Provider interface {
	Name() string
	Search(ctx context.Context, content string) (models.WebSearchResult, error)
}

// Chain runs providers in order and stops at the first hit.
type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger for the chain.
func WithLogger(l *zap.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l.Named("WebSearch")
		}
	}
}

// NewChain builds a chain over providers in priority order.
func NewChain(providers []Provider, opts ...Option) *Chain {
	c := &Chain{providers: providers, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Providers returns provider names in priority order.
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Search never fails: provider errors degrade to a miss. An exhausted chain
// reports the content as original.
func (c *Chain) Search(ctx context.Context, content string) models.WebSearchResult {
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			c.logger.Debug("search aborted", zap.Error(err))
			break
		}
		res, err := p.Search(ctx, content)
		if err != nil {
			c.logger.Debug("provider failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		if !res.Found {
			c.logger.Debug("provider miss", zap.String("provider", p.Name()))
			continue
		}
		if res.Provider == "" {
			res.Provider = p.Name()
		}
		res.Sources = topSources(res.Sources, 0)
		c.logger.Info("web match",
			zap.String("provider", res.Provider),
			zap.String("verdict", string(res.Verdict)),
			zap.Int("sources", len(res.Sources)),
		)
		return res
	}
	return models.WebSearchResult{Verdict: models.VerdictOriginal, Sources: []models.Source{}}
}

// Config selects and configures the default providers.
type Config struct {
	BingAPIKey      string
	BingEndpoint    string
	Market          string
	GoogleAPIKey    string
	GoogleEngineID  string
	GoogleEndpoint  string
	InstantEndpoint string
	ScrapeEndpoint  string
	UserAgent       string
	Timeout         time.Duration
	PoetryDelay     time.Duration
}

// NewDefaultChain wires the standard provider order: poetry, literary corpus,
// primary engine (or the demo table without a key), instant answers, custom
// search, HTML scrape.
func NewDefaultChain(cfg Config, matcher *corpus.Matcher, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	instant := NewInstantAnswer(client, cfg.InstantEndpoint)
	providers := []Provider{
		NewPoetry(matcher, instant, cfg.PoetryDelay, logger),
		NewCorpus(matcher),
	}
	if cfg.BingAPIKey != "" {
		providers = append(providers, NewBing(client, cfg.BingEndpoint, cfg.BingAPIKey, cfg.Market))
	} else {
		providers = append(providers, DefaultDemo())
	}
	providers = append(providers, instant)
	if cfg.GoogleAPIKey != "" && cfg.GoogleEngineID != "" {
		providers = append(providers, NewGoogle(client, cfg.GoogleEndpoint, cfg.GoogleAPIKey, cfg.GoogleEngineID))
	}
	providers = append(providers, NewScrape(client, cfg.ScrapeEndpoint, cfg.UserAgent))

	return NewChain(providers, WithLogger(logger))
}

type corpusProvider struct{ m *corpus.Matcher }

// NewCorpus adapts a corpus matcher to the Provider interface.
func NewCorpus(m *corpus.Matcher) Provider { return corpusProvider{m: m} }

func (corpusProvider) Name() string { return corpus.ProviderName }

func (p corpusProvider) Search(_ context.Context, content string) (models.WebSearchResult, error) {
	if p.m == nil {
		return models.NotFound(corpus.ProviderName), nil
	}
	return p.m.Match(content), nil
}

// statusError reports a non-2xx answer from a search provider.
type statusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.StatusCode, e.Body)
}
