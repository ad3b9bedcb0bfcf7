// Package estimator asks a text-generation model for plausible listings when
// no observed prices exist. Every result is labelled as an estimate.
package estimator

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/infrastructure/llm"
)

const (
	PrimaryName   = "estimate-primary"
	SecondaryName = "estimate-secondary"
)

var defaultRetailers = []string{"Screwfix", "Toolstation", "B&Q", "Wickes", "Travis Perkins"}

// DefaultPromptTemplate is the user prompt; it receives PromptData
const DefaultPromptTemplate = `Estimate current retail listings for: "{{.Query}}".
Return at most {{.Count}} products as a JSON array and nothing else.`

const systemTemplate = `You estimate realistic retail product listings for the {{.Market}} market.
Respond with a JSON array only. Each element has these fields:
  "productName": string, full product name including size or quantity
  "brand": string or null, a real brand sold in {{.Market}}
  "price": number, typical shelf price in {{.Currency}} without symbols
  "currency": "{{.Currency}}"
  "sizeValue": number or null
  "sizeUnit": string or null, one of mm, cm, m, L, ml, kg, g, pack
  "storeName": one of {{.RetailerList}}
  "productUrl": string, empty if unknown
  "sku": string or null
  "inStock": boolean or null
Return no more than {{.Count}} elements, ordered by ascending price.`

// PromptData feeds both the system instruction and the prompt template
type PromptData struct {
	Query        string
	Count        int
	Market       string
	Currency     string
	Retailers    []string
	RetailerList string
}

// Config parameterizes one estimator instance
type Config struct {
	Name string
	// Source must be one of the ai-estimate tags
	Source         domain.Source
	Provider       string
	Currency       string
	Market         string
	Retailers      []string
	MaxResults     int
	Timeout        time.Duration
	PromptTemplate string
}

// Adapter implements domain.SupplierAdapter over an llm.Generator
type Adapter struct {
	cfg    Config
	gen    llm.Generator
	system *template.Template
	prompt *template.Template
	logger *zap.Logger
	now    func() time.Time
}

// NewAdapter builds an estimator. A nil generator gives an adapter that
// always returns an empty slice.
func NewAdapter(cfg Config, gen llm.Generator, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = PrimaryName
	}
	if cfg.Source == "" {
		cfg.Source = domain.SourceAIEstimatePrimary
	}
	if cfg.Source.IsRealPrice() {
		return nil, fmt.Errorf("estimator %s: source %q is not an estimate source", cfg.Name, cfg.Source)
	}
	if cfg.Currency == "" {
		cfg.Currency = domain.DefaultCurrency
	}
	if cfg.Market == "" {
		cfg.Market = "United Kingdom"
	}
	if len(cfg.Retailers) == 0 {
		cfg.Retailers = defaultRetailers
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PromptTemplate == "" {
		cfg.PromptTemplate = DefaultPromptTemplate
	}

	prompt, err := template.New("prompt").Parse(cfg.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("estimator %s: parse prompt template: %w", cfg.Name, err)
	}

	return &Adapter{
		cfg:    cfg,
		gen:    gen,
		system: template.Must(template.New("system").Parse(systemTemplate)),
		prompt: prompt,
		logger: logger.Named(cfg.Name),
		now:    time.Now,
	}, nil
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) Tier() domain.AdapterTier { return domain.TierEstimate }

// Configured reports whether a generator is attached
func (a *Adapter) Configured() bool { return a.gen != nil }

// Search asks the model for up to min(limit, MaxResults) listings
func (a *Adapter) Search(ctx context.Context, query string, limit int) ([]domain.ProductResult, error) {
	if a.gen == nil {
		a.logger.Info("model not configured, skipping")
		return []domain.ProductResult{}, nil
	}

	count := a.cfg.MaxResults
	if limit > 0 && limit < count {
		count = limit
	}

	data := PromptData{
		Query:        query,
		Count:        count,
		Market:       a.cfg.Market,
		Currency:     a.cfg.Currency,
		Retailers:    a.cfg.Retailers,
		RetailerList: strings.Join(a.cfg.Retailers, ", "),
	}
	system, err := render(a.system, data)
	if err != nil {
		return []domain.ProductResult{}, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}
	prompt, err := render(a.prompt, data)
	if err != nil {
		return []domain.ProductResult{}, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	checkedAt := a.now()
	start := time.Now()
	text, err := a.gen.Generate(ctx, system, prompt)
	if err != nil {
		a.logger.Warn("generation failed",
			zap.String("provider", a.cfg.Provider),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return []domain.ProductResult{}, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}

	results, err := ParseEstimates(text, Labels{
		Source:       a.cfg.Source,
		Currency:     a.cfg.Currency,
		DefaultStore: a.cfg.Retailers[0],
	}, checkedAt)
	if err != nil {
		a.logger.Warn("unusable model output", zap.Int("length", len(text)), zap.Error(err))
		return []domain.ProductResult{}, fmt.Errorf("%s: %w", a.cfg.Name, err)
	}

	if len(results) > count {
		results = results[:count]
	}

	a.logger.Debug("estimates generated",
		zap.String("provider", a.cfg.Provider),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

func render(t *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
