// Package app wires configuration into the supplier search service.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeflow/backend/config"
	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/infrastructure/awin"
	"github.com/tradeflow/backend/internal/infrastructure/browser"
	"github.com/tradeflow/backend/internal/infrastructure/cache"
	"github.com/tradeflow/backend/internal/infrastructure/estimator"
	"github.com/tradeflow/backend/internal/infrastructure/llm"
	"github.com/tradeflow/backend/internal/infrastructure/scraper"
	"github.com/tradeflow/backend/internal/infrastructure/serpapi"
	"github.com/tradeflow/backend/internal/lifecycle"
	"github.com/tradeflow/backend/internal/usecase"
)

// App holds the assembled service and everything that must be released
type App struct {
	Suppliers *usecase.SupplierService
	Lifecycle *lifecycle.Manager
}

// configurable is implemented by adapters that can sit idle without credentials
type configurable interface {
	Configured() bool
}

// Build constructs adapters in precedence order: structured APIs, the
// scraper, then the two estimators. Nothing touches the network here; the
// browser launches on first use.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	shutdown := lifecycle.NewManager(logger)

	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	shutdown.Register("cache", func(context.Context) error {
		return memoryCache.Close()
	})

	adapters := []domain.SupplierAdapter{
		awin.NewAdapter(awin.Config{
			APIToken:      cfg.Awin.APIToken,
			PublisherID:   cfg.Awin.PublisherID,
			BaseURL:       cfg.Awin.BaseURL,
			Region:        cfg.Awin.Region,
			Timeout:       cfg.Awin.Timeout,
			RatePerSecond: cfg.Awin.Rate,
		}, logger),
		serpapi.NewAdapter(serpapi.Config{
			APIKey:        cfg.SerpAPI.APIKey,
			BaseURL:       cfg.SerpAPI.BaseURL,
			Country:       cfg.SerpAPI.Country,
			Language:      cfg.SerpAPI.Language,
			Timeout:       cfg.SerpAPI.Timeout,
			RatePerSecond: cfg.SerpAPI.Rate,
		}, logger),
	}

	if cfg.Scraper.Enabled {
		pool := browser.NewChromePool(browser.LaunchConfig{
			Bin:        cfg.Scraper.BrowserBin,
			ControlURL: cfg.Scraper.ControlURL,
			Headless:   cfg.Scraper.Headless,
		}, logger)
		shutdown.Register("browser", pool.Shutdown)

		adapters = append(adapters, scraper.NewAdapter(scraper.Config{
			Enabled:     true,
			BaseURL:     cfg.Scraper.BaseURL,
			SearchPath:  cfg.Scraper.SearchPath,
			StoreName:   cfg.Scraper.StoreName,
			SettleDelay: cfg.Scraper.SettleDelay,
			Timeout:     cfg.Scraper.Timeout,
			UserAgent:   cfg.Scraper.UserAgent,
		}, pool, logger))
	}

	estimators := []struct {
		name     string
		source   domain.Source
		provider config.ProviderConfig
	}{
		{estimator.PrimaryName, domain.SourceAIEstimatePrimary, cfg.Estimator.Primary},
		{estimator.SecondaryName, domain.SourceAIEstimateSecondary, cfg.Estimator.Secondary},
	}
	for _, e := range estimators {
		gen, err := llm.New(ctx, llm.ProviderConfig{
			Provider: e.provider.Provider,
			APIKey:   e.provider.APIKey,
			Model:    e.provider.Model,
			BaseURL:  e.provider.BaseURL,
		})
		if err != nil {
			_ = shutdown.Shutdown(ctx)
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}
		if closer, ok := gen.(llm.Closer); ok {
			shutdown.Register(e.name, func(context.Context) error {
				return closer.Close()
			})
		}

		adapter, err := estimator.NewAdapter(estimator.Config{
			Name:           e.name,
			Source:         e.source,
			Provider:       e.provider.Provider,
			Currency:       cfg.Estimator.Currency,
			Market:         cfg.Estimator.Market,
			Retailers:      cfg.Estimator.Retailers,
			MaxResults:     cfg.Estimator.MaxResults,
			Timeout:        cfg.Estimator.Timeout,
			PromptTemplate: cfg.Estimator.PromptTemplate,
		}, gen, logger)
		if err != nil {
			_ = shutdown.Shutdown(ctx)
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	for _, a := range adapters {
		if c, ok := a.(configurable); ok && !c.Configured() {
			logger.Warn("supplier source not configured; it will return no results",
				zap.String("adapter", a.Name()))
		}
	}

	service := usecase.NewSupplierService(memoryCache, adapters, usecase.SupplierServiceConfig{
		CacheTTL:         cfg.Cache.TTL,
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		EmptyAlarmWindow: cfg.Search.EmptyAlarmWindow,
	}, logger)

	return &App{Suppliers: service, Lifecycle: shutdown}, nil
}

// Close releases every resource Build acquired
func (a *App) Close(ctx context.Context) error {
	return a.Lifecycle.Shutdown(ctx)
}
