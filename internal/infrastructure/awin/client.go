// Package awin searches the Awin affiliate product catalogue for supplier prices.
package awin

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
const AdapterName = "awin"

// Config holds Awin API settings
type Config struct {
	APIToken      string
	PublisherID   string
	BaseURL       string
	Region        string
	Timeout       time.Duration
	RatePerSecond float64
	HTTPClient    *http.Client
}

// Adapter implements domain.SupplierAdapter over the Awin product search API
type Adapter struct {
	cfg    Config
	client *httpclient.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewAdapter creates a new Awin adapter
func NewAdapter(cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.awin.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Region == "" {
		cfg.Region = "GB"
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

// Configured reports whether both the API token and publisher ID are set
func (a *Adapter) Configured() bool {
	return strings.TrimSpace(a.cfg.APIToken) != "" && strings.TrimSpace(a.cfg.PublisherID) != ""
}

// Search queries the product catalogue. Missing credentials short-circuit
// to an empty result without touching the network.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]domain.ProductResult, error) {
	if !a.Configured() {
		a.logger.Info("credentials not configured, skipping")
		return []domain.ProductResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	checkedAt := a.now()

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("region", a.cfg.Region)
	reqURL := fmt.Sprintf("%s/publishers/%s/product-search?%s",
		a.cfg.BaseURL, url.PathEscape(a.cfg.PublisherID), params.Encode())

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.cfg.APIToken)

	body, err := a.client.GetJSON(ctx, reqURL, header)
	if err != nil {
		a.logger.Warn("product search failed", zap.String("query", query), zap.Error(err))
		return []domain.ProductResult{}, fmt.Errorf("awin search: %w", err)
	}

	results, err := MapProducts(body, checkedAt)
	if err != nil {
		a.logger.Warn("could not decode product search response", zap.Error(err))
		return []domain.ProductResult{}, fmt.Errorf("awin search: %w", err)
	}

	if len(results) > limit && limit > 0 {
		results = results[:limit]
	}

	a.logger.Debug("product search complete", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}
