// Package serpapi queries Google Shopping through SerpAPI for comparison prices.
package serpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/infrastructure/httpclient"
)

// AdapterName is the filter key for this source
const AdapterName = "serpapi"

// Config holds SerpAPI settings
type Config struct {
	APIKey        string
	BaseURL       string
	Country       string
	Language      string
	Timeout       time.Duration
	RatePerSecond float64
	HTTPClient    *http.Client
}

// Adapter implements domain.SupplierAdapter over the SerpAPI google_shopping engine
type Adapter struct {
	cfg    Config
	client *httpclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewAdapter creates a new SerpAPI adapter
func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://serpapi.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Country == "" {
		cfg.Country = "uk"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	return &Adapter{
		cfg: cfg,
		client: httpclient.New(httpclient.Config{
			Name:          AdapterName,
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
			HTTPClient:    cfg.HTTPClient,
			Logger:        logger,
		}),
		logger: logger.Named(AdapterName),
		now:    time.Now,
	}
}

func (a *Adapter) Name() string { return AdapterName }

func (a *Adapter) Tier() domain.AdapterTier { return domain.TierRealPrice }

// Configured reports whether an API key is set
func (a *Adapter) Configured() bool {
	return strings.TrimSpace(a.cfg.APIKey) != ""
}

// Search runs a Google Shopping query for the configured country
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]domain.ProductResult, error) {
	if !a.Configured() {
		a.logger.Info("api key not configured, skipping")
		return []domain.ProductResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	checkedAt := a.now()

	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("gl", a.cfg.Country)
	params.Set("hl", a.cfg.Language)
	params.Set("num", strconv.Itoa(limit))
	params.Set("api_key", a.cfg.APIKey)
	reqURL := fmt.Sprintf("%s/search.json?%s", a.cfg.BaseURL, params.Encode())

	body, err := a.client.GetJSON(ctx, reqURL, nil)
	if err != nil {
		a.logger.Warn("shopping search failed", zap.String("query", query), zap.Error(err))
		return []domain.ProductResult{}, fmt.Errorf("serpapi search: %w", err)
	}

	results, err := MapShoppingResults(body, checkedAt)
	if err != nil {
		a.logger.Warn("could not decode shopping response", zap.Error(err))
		return []domain.ProductResult{}, fmt.Errorf("serpapi search: %w", err)
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	a.logger.Debug("shopping search complete", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}
