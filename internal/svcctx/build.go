package svcctx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/pdfx/internal/batch"
	"github.com/jackzampolin/pdfx/internal/cache"
	"github.com/jackzampolin/pdfx/internal/config"
	"github.com/jackzampolin/pdfx/internal/extraction"
	"github.com/jackzampolin/pdfx/internal/fields"
	"github.com/jackzampolin/pdfx/internal/llmcall"
	"github.com/jackzampolin/pdfx/internal/metrics"
	"github.com/jackzampolin/pdfx/internal/pdftext"
	"github.com/jackzampolin/pdfx/internal/providers"
)

// Build wires the extraction stack from configuration: provider registry,
// cache, text and field extractors, orchestrator, batch runner and the
// in-memory call and metrics stores. The registry follows config reloads.
func Build(mgr *config.Manager, logger *slog.Logger) (*Services, error) {
	if mgr == nil {
		return nil, errors.New("config manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := mgr.Get()

	registry := providers.NewRegistry()
	registry.SetLogger(logger)
	registry.Reload(cfg.ToProviderRegistryConfig())
	if !registry.HasLLM(config.DefaultProviderName) {
		logger.Warn("no LLM provider configured; extractions will return empty fields",
			"provider", cfg.LLM.Provider)
	}

	mgr.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		logger.Info("provider registry reloaded from config")
	})

	c, err := cache.New(cache.Options{MaxEntries: cfg.Cache.MaxEntries})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	rec := metrics.NewRecorder(0)
	calls := llmcall.NewStore(cfg.LLM.HistorySize)

	fx := fields.New(fields.Config{
		Source:     registry,
		Provider:   config.DefaultProviderName,
		Timeout:    cfg.LLM.TimeoutDuration(),
		Structured: cfg.LLM.Structured,
		Calls:      calls,
		Metrics:    rec,
		Logger:     logger.With("component", "fields"),
	})

	svc, err := extraction.New(extraction.Config{
		Cache:        c,
		Text:         pdftext.New(logger.With("component", "pdftext")),
		Fields:       fx,
		Metrics:      rec,
		Logger:       logger.With("component", "extraction"),
		MaxInFlight:  cfg.Extraction.MaxInFlight,
		SkipFailures: !cfg.Cache.StoreFailures,
	})
	if err != nil {
		return nil, err
	}

	return &Services{
		Extraction: svc,
		Batch: batch.NewRunner(svc, batch.Config{
			BaseDir: cfg.Batch.BaseDir,
			Logger:  logger.With("component", "batch"),
		}),
		Registry:     registry,
		Metrics:      rec,
		LLMCallStore: calls,
		Config:       mgr,
		Logger:       logger,
	}, nil
}
