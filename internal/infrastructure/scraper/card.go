package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/normalize"
)

// skuPattern matches retailer detail paths such as /p/no-more-nails-365ml/12345
var skuPattern = regexp.MustCompile(`/p/[^/]+/([A-Za-z0-9]+)`)

// RawCard is the text pulled from one product card before normalization
type RawCard struct {
	Name      string
	PriceText string
	Href      string
}

// MapCard normalizes a card. Cards without a name or a readable price are
// rejected so one broken tile does not spoil the batch.
func MapCard(raw RawCard, baseURL, storeName string, checkedAt time.Time) (domain.ProductResult, bool) {
	name := strings.Join(strings.Fields(raw.Name), " ")
	if name == "" {
		return domain.ProductResult{}, false
	}
	price, ok := normalize.ParsePriceText(raw.PriceText)
	if !ok {
		return domain.ProductResult{}, false
	}

	link := resolveURL(baseURL, raw.Href)
	size := normalize.ParseSize(name)
	sizeValue, sizeUnit, sizeLabel := normalize.SizeFields(size)

	return domain.ProductResult{
		ProductName:   name,
		Brand:         domain.StringPtr(normalize.InferBrand(name)),
		Price:         &price,
		Currency:      normalize.DetectCurrency(raw.PriceText),
		SizeValue:     sizeValue,
		SizeUnit:      sizeUnit,
		SizeLabel:     sizeLabel,
		StoreName:     storeName,
		ProductURL:    link,
		SKU:           domain.StringPtr(extractSKU(link)),
		LastCheckedAt: checkedAt,
		PricePerUnit:  normalize.PricePerUnit(&price, size),
		Source:        domain.SourceScrape,
		IsRealPrice:   true,
	}, true
}

func extractSKU(link string) string {
	m := skuPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
