package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/provenance-lab/origincheck/internal/config"
	"github.com/provenance-lab/origincheck/internal/middleware"
	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/provenance-lab/origincheck/internal/modules/detection/imagefp"
	"github.com/provenance-lab/origincheck/internal/pkg/kvstore"
	pkgredis "github.com/provenance-lab/origincheck/internal/pkg/redis"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// App holds all application dependencies.
type App struct {
	cfg     *config.AppConfig
	router  *gin.Engine
	store   kvstore.Store
	logger  *zap.Logger
	started time.Time
}

// New initializes the application: config → store → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.RateLimit(store, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger.Named("RateLimit")))

	app := &App{cfg: cfg, router: router, store: store, logger: logger, started: time.Now()}
	if err := app.registerRoutes(); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("application ready",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.Store.Kind),
		zap.String("default_model", cfg.Models.Default),
	)
	return app, nil
}

func openStore(cfg *config.AppConfig) (kvstore.Store, error) {
	if cfg.Store.Kind != config.StoreRedis {
		return kvstore.NewMemory(0), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	rdb, err := pkgredis.Connect(ctx, cfg.Redis.URLValue())
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return kvstore.NewRedis(rdb, cfg.Store.Prefix), nil
}

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader, "X-Session-ID"},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(string) bool { return true }
	}
	return c
}

func classifierOptions(cfg *config.AppConfig, logger *zap.Logger) []classifier.Option {
	opts := []classifier.Option{
		classifier.WithLogger(logger),
		classifier.WithTimeout(cfg.Models.Timeout),
		classifier.WithDefaultModel(cfg.Models.Default),
	}
	if u := cfg.Models.MistralBaseURL; u != "" {
		opts = append(opts, classifier.WithBackend(classifier.ProviderMistral, classifier.NewOpenAIBackend(classifier.ProviderMistral, u, nil)))
	}
	if u := cfg.Models.OpenAIBaseURL; u != "" {
		opts = append(opts, classifier.WithBackend(classifier.ProviderOpenAI, classifier.NewOpenAIBackend(classifier.ProviderOpenAI, u, nil)))
	}
	if u := cfg.Models.AnthropicBaseURL; u != "" {
		opts = append(opts, classifier.WithBackend(classifier.ProviderAnthropic, classifier.NewAnthropicBackend(u)))
	}
	return opts
}

func loadToolTable(path string) (*imagefp.Table, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image tool table: %w", err)
	}
	defer f.Close()
	t, err := imagefp.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("image tool table %s: %w", path, err)
	}
	return t, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown releases the key/value store.
func (a *App) Shutdown() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
}
