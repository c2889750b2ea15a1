package app

import (
	"github.com/provenance-lab/origincheck/internal/modules/detection/analyze"
	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
	"github.com/provenance-lab/origincheck/internal/modules/detection/corpus"
	"github.com/provenance-lab/origincheck/internal/modules/detection/imagefp"
	"github.com/provenance-lab/origincheck/internal/modules/detection/websearch"
	"github.com/provenance-lab/origincheck/internal/modules/system/health"
	"github.com/provenance-lab/origincheck/internal/modules/system/settings"
	"github.com/provenance-lab/origincheck/internal/pkg/response"
)

func (a *App) registerRoutes() error {
	cfg := a.cfg

	creds := classifier.Credentials{
		Mistral:   cfg.Models.MistralAPIKey,
		OpenAI:    cfg.Models.OpenAIAPIKey,
		Anthropic: cfg.Models.AnthropicAPIKey,
	}

	table, err := loadToolTable(cfg.Image.ToolTable)
	if err != nil {
		return err
	}

	chain := websearch.NewDefaultChain(websearch.Config{
		BingAPIKey:      cfg.Search.BingAPIKey,
		BingEndpoint:    cfg.Search.BingEndpoint,
		Market:          cfg.Search.Market,
		GoogleAPIKey:    cfg.Search.GoogleAPIKey,
		GoogleEngineID:  cfg.Search.GoogleEngineID,
		GoogleEndpoint:  cfg.Search.GoogleEndpoint,
		InstantEndpoint: cfg.Search.InstantEndpoint,
		ScrapeEndpoint:  cfg.Search.ScrapeEndpoint,
		UserAgent:       cfg.Search.UserAgent,
		Timeout:         cfg.Search.Timeout,
		PoetryDelay:     cfg.Search.PoetryDelay,
	}, corpus.Default(), a.logger)
	cls := classifier.New(creds, classifierOptions(cfg, a.logger)...)
	images := imagefp.New(table, imagefp.WithLogger(a.logger))

	settingsSvc := settings.NewService(a.store, creds,
		settings.WithLogger(a.logger),
		settings.WithTTL(cfg.Store.SettingsTTL),
		settings.WithDefaultModel(cfg.Models.Default),
	)
	analyzeSvc := analyze.NewService(chain, cls, images,
		analyze.WithLogger(a.logger),
		analyze.WithSettings(settingsSvc),
		analyze.WithSearchTimeout(cfg.Search.Budget),
	)

	root := a.router.Group("")
	health.RegisterRoutes(root, a.store, a.started)
	settings.NewHandler(settingsSvc).RegisterRoutes(root)
	analyze.NewHandler(analyzeSvc).RegisterRoutes(root)

	a.router.NoRoute(response.NotFound)
	return nil
}
