package serpapi

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/normalize"
)

const defaultStoreName = "Google Shopping"

// MapShoppingResults converts a google_shopping payload into ProductResults
func MapShoppingResults(body []byte, checkedAt time.Time) ([]domain.ProductResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, domain.ErrMalformedPayload
	}

	root := gjson.ParseBytes(body)
	if msg := root.Get("error"); msg.Exists() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceFailure, msg.String())
	}

	items := root.Get("shopping_results")
	results := make([]domain.ProductResult, 0, len(items.Array()))
	items.ForEach(func(_, item gjson.Result) bool {
		if product, ok := mapShoppingResult(item, checkedAt); ok {
			results = append(results, product)
		}
		return true
	})

	return results, nil
}

// mapShoppingResult converts one shopping result into our domain ProductResult
func mapShoppingResult(item gjson.Result, checkedAt time.Time) (domain.ProductResult, bool) {
	title := normalize.FirstString(item, "title")
	if title == "" {
		return domain.ProductResult{}, false
	}

	// extracted_price is pre-parsed; price is a display string like "£6.49"
	price := normalize.OptionalFloat(item.Get("extracted_price"))
	priceText := item.Get("price").String()
	if price == nil {
		if v, ok := normalize.ParsePriceText(priceText); ok {
			price = &v
		}
	}

	store := normalize.FirstString(item, "source", "seller")
	if store == "" {
		store = defaultStoreName
	}

	// assume in stock unless the payload says otherwise
	inStock := item.Get("in_stock").Type != gjson.False

	size := normalize.ParseSize(title)
	sizeValue, sizeUnit, sizeLabel := normalize.SizeFields(size)

	return domain.ProductResult{
		ProductName:   title,
		Brand:         domain.StringPtr(normalize.InferBrand(title)),
		Price:         price,
		Currency:      normalize.DetectCurrency(priceText),
		SizeValue:     sizeValue,
		SizeUnit:      sizeUnit,
		SizeLabel:     sizeLabel,
		StoreName:     store,
		ProductURL:    normalize.FirstString(item, "product_link", "link"),
		SKU:           domain.StringPtr(normalize.FirstString(item, "product_id")),
		InStock:       domain.BoolPtr(inStock),
		LastCheckedAt: checkedAt,
		Rating:        normalize.OptionalFloat(item.Get("rating")),
		ReviewCount:   normalize.OptionalInt(item.Get("reviews")),
		PricePerUnit:  normalize.PricePerUnit(price, size),
		ImageURL:      normalize.FirstString(item, "thumbnail"),
		Source:        domain.SourceStructuredAPI,
		IsRealPrice:   true,
	}, true
}
