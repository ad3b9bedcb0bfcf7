// Package scraper reads supplier prices from a retailer's search results
// page with a shared headless browser. The retailer publishes no API, so the
// card markup is matched heuristically and zero results is a normal outcome.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/infrastructure/browser"
)

// AdapterName is the filter key for this source
const AdapterName = "scraper"

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	cookieTimeout    = 2 * time.Second
	closeTimeout     = 10 * time.Second
)

// cardSelectors are tried in order; the first that matches anything wins
var cardSelectors = []string{
	`[data-qaid="product-card"]`,
	`[data-qaid="product_tile"]`,
	`.product-card`,
	`article[class*="ProductCard"]`,
	`div[class*="product-tile"]`,
}

var (
	nameSelectors = []string{
		`[data-qaid="product-description"]`,
		`[data-qaid="product_description"]`,
		`h3`,
		`h2`,
		`a[title]`,
	}
	priceSelectors = []string{
		`[data-qaid="price"]`,
		`[data-qaid="product-price"]`,
		`[class*="price"]`,
	}
	linkSelectors = []string{
		`a[href*="/p/"]`,
		`a[href]`,
	}
	cookieSelectors = []string{
		`#onetrust-accept-btn-handler`,
		`button[id*="accept"]`,
	}
)

// Config holds retailer and page settings
type Config struct {
	Enabled bool
	BaseURL string
	// SearchPath is a format string receiving the escaped query
	SearchPath  string
	StoreName   string
	SettleDelay time.Duration
	Timeout     time.Duration
	UserAgent   string
}

// Adapter implements domain.SupplierAdapter by scraping a retailer search page
type Adapter struct {
	cfg    Config
	pool   *browser.Pool[*browser.Chrome]
	logger *zap.Logger
	now    func() time.Time
}

// NewAdapter creates a scraper that borrows browsers from pool
func NewAdapter(cfg Config, pool *browser.Pool[*browser.Chrome], logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.screwfix.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SearchPath == "" {
		cfg.SearchPath = "/search?search=%s"
	}
	if cfg.StoreName == "" {
		cfg.StoreName = "Screwfix"
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	return &Adapter{
		cfg:    cfg,
		pool:   pool,
		logger: logger.Named(AdapterName),
		now:    time.Now,
	}
}

func (a *Adapter) Name() string { return AdapterName }

func (a *Adapter) Tier() domain.AdapterTier { return domain.TierRealPrice }

// SearchURL builds the retailer search page address for query
func (a *Adapter) SearchURL(query string) string {
	return a.cfg.BaseURL + fmt.Sprintf(a.cfg.SearchPath, url.QueryEscape(query))
}

// Search opens a fresh tab on the shared browser, reads up to limit product
// cards and closes the tab on every exit path. Cards gathered before a
// failure are returned together with the error.
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]domain.ProductResult, error) {
	results := []domain.ProductResult{}
	if !a.cfg.Enabled || a.pool == nil {
		a.logger.Info("scraper disabled, skipping")
		return results, nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	chrome, release, err := a.pool.Acquire(ctx)
	if err != nil {
		a.logger.Warn("browser unavailable", zap.Error(err))
		return results, fmt.Errorf("scraper: acquire browser: %w", err)
	}
	defer release()

	base, err := chrome.Browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return results, fmt.Errorf("scraper: open page: %w", err)
	}
	// base stays unbound from ctx so the tab still closes after a timeout
	defer a.closePage(base)
	page := base.Context(ctx)

	checkedAt := a.now()
	results, err = a.scrape(ctx, page, query, limit, checkedAt)
	if err != nil {
		a.logger.Warn("scrape failed",
			zap.String("query", query),
			zap.Int("partial_results", len(results)),
			zap.Error(err),
		)
		return results, fmt.Errorf("scraper: %w", err)
	}

	if len(results) == 0 {
		// markup drift shows up here; not an error on its own
		a.logger.Debug("no product cards matched", zap.String("query", query))
	}
	return results, nil
}

// closePage closes the tab on a fresh context bounded by closeTimeout,
// independent of the search deadline
func (a *Adapter) closePage(page *rod.Page) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := page.Context(ctx).Close(); err != nil {
		a.logger.Warn("page close failed; tab may leak", zap.Error(err))
	}
}

func (a *Adapter) scrape(ctx context.Context, page *rod.Page, query string, limit int, checkedAt time.Time) ([]domain.ProductResult, error) {
	results := []domain.ProductResult{}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: a.cfg.UserAgent}); err != nil {
		return results, fmt.Errorf("set user agent: %w", err)
	}
	if err := page.Navigate(a.SearchURL(query)); err != nil {
		return results, fmt.Errorf("navigate: %w", err)
	}

	// the site never signals load-complete reliably
	if err := settle(ctx, a.cfg.SettleDelay); err != nil {
		return results, err
	}

	a.dismissCookies(page)

	cards, selector := findCards(page)
	if len(cards) == 0 {
		return results, nil
	}
	a.logger.Debug("matched product cards", zap.String("selector", selector), zap.Int("cards", len(cards)))

	for _, card := range cards {
		if limit > 0 && len(results) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		raw := readCard(card)
		product, ok := MapCard(raw, a.cfg.BaseURL, a.cfg.StoreName, checkedAt)
		if !ok {
			continue
		}
		results = append(results, product)
	}

	return results, nil
}

func (a *Adapter) dismissCookies(page *rod.Page) {
	p := page.Timeout(cookieTimeout)
	defer p.CancelTimeout()

	for _, sel := range cookieSelectors {
		els, err := p.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		if err := els.First().Click(proto.InputMouseButtonLeft, 1); err != nil {
			a.logger.Debug("cookie banner click failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		return
	}
}

func findCards(page *rod.Page) (rod.Elements, string) {
	for _, sel := range cardSelectors {
		els, err := page.Elements(sel)
		if err == nil && len(els) > 0 {
			return els, sel
		}
	}
	return nil, ""
}

func readCard(card *rod.Element) RawCard {
	return RawCard{
		Name:      firstText(card, nameSelectors),
		PriceText: firstText(card, priceSelectors),
		Href:      firstAttr(card, linkSelectors, "href"),
	}
}

func firstText(el *rod.Element, selectors []string) string {
	for _, sel := range selectors {
		els, err := el.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		text, err := els.First().Text()
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(el *rod.Element, selectors []string, name string) string {
	for _, sel := range selectors {
		els, err := el.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		v, err := els.First().Attribute(name)
		if err != nil || v == nil || *v == "" {
			continue
		}
		return *v
	}
	return ""
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
