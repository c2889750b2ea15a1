// Package settings stores per-session preferences and API keys.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/provenance-lab/origincheck/internal/pkg/kvstore"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "settings:"
	defaultTTL = 30 * 24 * time.Hour
)

// Service reads and writes settings records in the key/value store.
type Service struct {
	store  kvstore.Store
	env    classifier.Credentials
	ttl    time.Duration
	model  string
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("Settings")
		}
	}
}

// WithTTL sets how long an untouched record is kept.
func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithDefaultModel replaces the default model of records that never set
// one. Models outside the catalog are ignored.
func WithDefaultModel(id string) Option {
	return func(s *Service) {
		if classifier.IsAllowed(id) {
			s.model = id
		}
	}
}

// NewService builds the service. env supplies fallback keys for APIKey.
func NewService(store kvstore.Store, env classifier.Credentials, opts ...Option) *Service {
	s := &Service{store: store, env: env, ttl: defaultTTL, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the session's record, or the defaults when none is stored.
func (s *Service) Get(ctx context.Context, session string) (Settings, error) {
	raw, err := s.store.Get(ctx, keyPrefix+session)
	if errors.Is(err, kvstore.ErrNotFound) {
		return s.defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	out := s.defaults()
	if err := json.Unmarshal(raw, &out); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

func (s *Service) defaults() Settings {
	d := Defaults()
	if s.model != "" {
		d.DefaultModel = s.model
	}
	return d
}

// Update validates partial and merges it into the stored record.
func (s *Service) Update(ctx context.Context, session string, partial map[string]json.RawMessage) (Settings, error) {
	if err := validatePatch(partial); err != nil {
		return Settings{}, err
	}
	current, err := s.Get(ctx, session)
	if err != nil {
		return Settings{}, err
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return Settings{}, err
	}
	merged := map[string]interface{}{}
	if err := json.Unmarshal(currentJSON, &merged); err != nil {
		return Settings{}, err
	}
	for k, v := range partial {
		if len(strings.TrimSpace(string(v))) == 0 {
			continue
		}
		var incoming interface{}
		if err := json.Unmarshal(v, &incoming); err != nil {
			return Settings{}, &ValidationError{msg: fmt.Sprintf("Geçersiz alan: %s", k)}
		}
		if existing, ok := merged[k]; ok {
			merged[k] = mergeJSON(existing, incoming)
			continue
		}
		merged[k] = incoming
	}

	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return Settings{}, err
	}
	var updated Settings
	if err := json.Unmarshal(mergedJSON, &updated); err != nil {
		return Settings{}, &ValidationError{msg: "Ayarlar okunamadı"}
	}
	updated.MistralAPIKey = strings.TrimSpace(updated.MistralAPIKey)
	updated.OpenAIAPIKey = strings.TrimSpace(updated.OpenAIAPIKey)
	updated.AnthropicAPIKey = strings.TrimSpace(updated.AnthropicAPIKey)

	data, err := json.Marshal(updated)
	if err != nil {
		return Settings{}, err
	}
	if err := s.store.Set(ctx, keyPrefix+session, data, s.ttl); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.logger.Info("settings saved", zap.String("session", session), zap.Int("fields", len(partial)))
	return updated, nil
}

// APIKey returns the session's Mistral key, falling back to the process
// key. Empty means none is available.
func (s *Service) APIKey(ctx context.Context, session string) (string, error) {
	st, err := s.Get(ctx, session)
	if err != nil {
		return "", err
	}
	if k := st.KeyFor(classifier.ProviderMistral); k != "" {
		return k, nil
	}
	return s.env.For(classifier.ProviderMistral), nil
}
