package domain

import "time"

// DefaultCurrency is used when a source does not report one.
const DefaultCurrency = "GBP"

// Source identifies where a ProductResult's price came from
type Source string

const (
	SourceStructuredAPI       Source = "structured-api"
	SourceScrape              Source = "scrape"
	SourceAIEstimatePrimary   Source = "ai-estimate-primary"
	SourceAIEstimateSecondary Source = "ai-estimate-secondary"
	SourceManual              Source = "manual"
)

// IsRealPrice reports whether prices from this source are observed rather than estimated
func (s Source) IsRealPrice() bool {
	return s == SourceStructuredAPI || s == SourceScrape
}

// ProductResult is the normalized unit every supplier adapter produces.
// Nil pointers mean "unknown"; ProductURL is empty rather than absent.
type ProductResult struct {
	ProductName   string    `json:"productName"`
	Brand         *string   `json:"brand"`
	Price         *float64  `json:"price"`
	Currency      string    `json:"currency"`
	SizeValue     *float64  `json:"sizeValue"`
	SizeUnit      *string   `json:"sizeUnit"`
	SizeLabel     *string   `json:"sizeLabel"`
	StoreName     string    `json:"storeName"`
	ProductURL    string    `json:"productUrl"`
	SKU           *string   `json:"sku"`
	InStock       *bool     `json:"inStock"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`

	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"reviewCount,omitempty"`
	PricePerUnit *float64 `json:"pricePerUnit,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Source       Source   `json:"source,omitempty"`
	IsRealPrice  bool     `json:"isRealPrice"`
}

// HasValidPrice reports whether the result may appear in a ranked list
func (p ProductResult) HasValidPrice() bool {
	return p.Price != nil && *p.Price > 0
}

// Clone returns a copy that shares no pointers with p
func (p ProductResult) Clone() ProductResult {
	p.Brand = clonePtr(p.Brand)
	p.Price = clonePtr(p.Price)
	p.SizeValue = clonePtr(p.SizeValue)
	p.SizeUnit = clonePtr(p.SizeUnit)
	p.SizeLabel = clonePtr(p.SizeLabel)
	p.SKU = clonePtr(p.SKU)
	p.InStock = clonePtr(p.InStock)
	p.Rating = clonePtr(p.Rating)
	p.ReviewCount = clonePtr(p.ReviewCount)
	p.PricePerUnit = clonePtr(p.PricePerUnit)
	return p
}

// CloneResults deep-copies results. nil stays nil.
func CloneResults(results []ProductResult) []ProductResult {
	if results == nil {
		return nil
	}
	out := make([]ProductResult, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Size is a parsed package size such as 365ml or 10pack
type Size struct {
	Value float64
	Unit  string
	Label string
}

// AllEstimated reports whether results is non-empty and contains no real prices.
// Consumers use it to warn that every listed price is a generated estimate.
func AllEstimated(results []ProductResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.IsRealPrice {
			return false
		}
	}
	return true
}

// StringPtr returns nil for an empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Float64Ptr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }

func BoolPtr(v bool) *bool { return &v }
