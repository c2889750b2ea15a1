package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 3000
	defaultEnv           = "development"
	defaultStoreKind     = StoreMemory
	defaultStorePrefix   = "origincheck:"
	defaultSettingsTTL   = 30 * 24 * time.Hour
	defaultRateRequests  = 30
	defaultRateWindow    = time.Minute
	defaultSearchTimeout = 8 * time.Second
	defaultSearchBudget  = 20 * time.Second
	defaultPoetryDelay   = 500 * time.Millisecond
	defaultMarket        = "tr-TR"
	defaultModel         = "mistral-small-latest"
	defaultModelTimeout  = 60 * time.Second
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"` // "development" | "production"
	AllowedOrigins []string           `yaml:"allowed_origins"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	Store          StoreConfig        `yaml:"store"`
	Redis          RedisRuntimeConfig `yaml:"redis"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	Search         SearchConfig       `yaml:"search"`
	Models         ModelsConfig       `yaml:"models"`
	Image          ImageConfig        `yaml:"image"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// StoreConfig selects the key/value store behind settings and rate limits.
type StoreConfig struct {
	Kind        string        `yaml:"kind"`
	Prefix      string        `yaml:"prefix"`
	SettingsTTL time.Duration `yaml:"settings_ttl"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// SearchConfig configures the web search providers. Providers without
// credentials are left out of the chain.
type SearchConfig struct {
	BingAPIKey      string        `yaml:"bing_api_key"`
	BingEndpoint    string        `yaml:"bing_endpoint"`
	Market          string        `yaml:"market"`
	GoogleAPIKey    string        `yaml:"google_api_key"`
	GoogleEngineID  string        `yaml:"google_engine_id"`
	GoogleEndpoint  string        `yaml:"google_endpoint"`
	InstantEndpoint string        `yaml:"instant_endpoint"`
	ScrapeEndpoint  string        `yaml:"scrape_endpoint"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	Budget          time.Duration `yaml:"budget"` // whole chain
	PoetryDelay     time.Duration `yaml:"poetry_delay"`
}

// ModelsConfig holds the process-level model credentials and endpoints.
type ModelsConfig struct {
	Default          string        `yaml:"default"`
	Timeout          time.Duration `yaml:"timeout"`
	MistralAPIKey    string        `yaml:"mistral_api_key"`
	OpenAIAPIKey     string        `yaml:"openai_api_key"`
	AnthropicAPIKey  string        `yaml:"anthropic_api_key"`
	MistralBaseURL   string        `yaml:"mistral_base_url"`
	OpenAIBaseURL    string        `yaml:"openai_base_url"`
	AnthropicBaseURL string        `yaml:"anthropic_base_url"`
}

// ImageConfig points at an optional fingerprint table replacing the
// embedded one.
type ImageConfig struct {
	ToolTable string `yaml:"tool_table"`
}

// Load reads the YAML file at configPath and applies environment overrides.
// A missing default config file yields the defaults.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !(errors.Is(err, os.ErrNotExist) && path == DefaultConfigPath) {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		content = nil
	}

	cfg, err := Parse(bytes.NewReader(content), os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults, applies overrides from
// getenv and validates the result.
func Parse(r io.Reader, getenv func(string) string) (*AppConfig, error) {
	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if getenv != nil {
		if err := applyEnv(&cfg, getenv); err != nil {
			return nil, err
		}
	}
	normalize(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Store: StoreConfig{
			Kind:        defaultStoreKind,
			Prefix:      defaultStorePrefix,
			SettingsTTL: defaultSettingsTTL,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		RateLimit: RateLimitConfig{
			Requests: defaultRateRequests,
			Window:   defaultRateWindow,
		},
		Search: SearchConfig{
			Market:      defaultMarket,
			Timeout:     defaultSearchTimeout,
			Budget:      defaultSearchBudget,
			PoetryDelay: defaultPoetryDelay,
		},
		Models: ModelsConfig{
			Default: defaultModel,
			Timeout: defaultModelTimeout,
		},
	}
}

// applyEnv lets credentials and deployment knobs come from the environment.
func applyEnv(cfg *AppConfig, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("MISTRAL_API_KEY", &cfg.Models.MistralAPIKey)
	str("OPENAI_API_KEY", &cfg.Models.OpenAIAPIKey)
	str("ANTHROPIC_API_KEY", &cfg.Models.AnthropicAPIKey)
	str("BING_SEARCH_API_KEY", &cfg.Search.BingAPIKey)
	str("GOOGLE_SEARCH_API_KEY", &cfg.Search.GoogleAPIKey)
	str("GOOGLE_SEARCH_ENGINE_ID", &cfg.Search.GoogleEngineID)
	str("REDIS_URL", &cfg.Redis.URL)
	str("APP_ENV", &cfg.Env)

	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	return nil
}

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.Paths.Logs = strings.TrimSpace(cfg.Paths.Logs)
	cfg.Store.Kind = strings.ToLower(strings.TrimSpace(cfg.Store.Kind))
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = defaultStoreKind
	}
	if cfg.Store.SettingsTTL <= 0 {
		cfg.Store.SettingsTTL = defaultSettingsTTL
	}
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	if strings.TrimSpace(cfg.Search.Market) == "" {
		cfg.Search.Market = defaultMarket
	}
	if cfg.Search.Timeout <= 0 {
		cfg.Search.Timeout = defaultSearchTimeout
	}
	if cfg.Models.Timeout <= 0 {
		cfg.Models.Timeout = defaultModelTimeout
	}
	if strings.TrimSpace(cfg.Models.Default) == "" {
		cfg.Models.Default = defaultModel
	}
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid store.kind %q, expected %s or %s", c.Store.Kind, StoreMemory, StoreRedis)
	}
	if c.Store.Kind == StoreRedis && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("invalid rate_limit.requests %d, expected > 0", c.RateLimit.Requests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate_limit.window %s, expected > 0", c.RateLimit.Window)
	}
	if c.Search.Budget < c.Search.Timeout {
		return fmt.Errorf("invalid search.budget %s, expected >= search.timeout %s", c.Search.Budget, c.Search.Timeout)
	}
	if c.Search.PoetryDelay < 0 {
		return fmt.Errorf("invalid search.poetry_delay %s", c.Search.PoetryDelay)
	}
	return nil
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }
