package awin

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/normalize"
)

const defaultStoreName = "Awin"

// MapProducts converts an Awin product search payload into ProductResults.
// The payload may be {"products": [...]} or a bare array; items without a
// name are dropped.
func MapProducts(body []byte, checkedAt time.Time) ([]domain.ProductResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, domain.ErrMalformedPayload
	}

	root := gjson.ParseBytes(body)
	items := root.Get("products")
	if !items.IsArray() {
		if !root.IsArray() {
			return []domain.ProductResult{}, nil
		}
		items = root
	}

	results := make([]domain.ProductResult, 0, len(items.Array()))
	items.ForEach(func(_, item gjson.Result) bool {
		if product, ok := mapProduct(item, checkedAt); ok {
			results = append(results, product)
		}
		return true
	})

	return results, nil
}

// mapProduct converts a single Awin item into our domain ProductResult
func mapProduct(item gjson.Result, checkedAt time.Time) (domain.ProductResult, bool) {
	name := normalize.FirstString(item, "product_name", "name")
	if name == "" {
		return domain.ProductResult{}, false
	}

	brand := normalize.FirstString(item, "brand_name", "manufacturer")
	if brand == "" {
		brand = normalize.InferBrand(name)
	}

	price := normalize.Price(item.Get("search_price"))
	if price == nil {
		price = normalize.Price(item.Get("store_price"))
	}

	store := normalize.FirstString(item, "merchant_name")
	if store == "" {
		store = defaultStoreName
	}

	size := normalize.ParseSize(name)
	sizeValue, sizeUnit, sizeLabel := normalize.SizeFields(size)

	return domain.ProductResult{
		ProductName:   name,
		Brand:         domain.StringPtr(brand),
		Price:         price,
		Currency:      normalize.Currency(normalize.FirstString(item, "currency")),
		SizeValue:     sizeValue,
		SizeUnit:      sizeUnit,
		SizeLabel:     sizeLabel,
		StoreName:     store,
		ProductURL:    normalize.FirstString(item, "aw_deep_link", "merchant_deep_link"),
		SKU:           domain.StringPtr(normalize.FirstString(item, "aw_product_id", "merchant_product_id")),
		InStock:       normalize.Tristate(item.Get("in_stock")),
		LastCheckedAt: checkedAt,
		Rating:        normalize.OptionalFloat(item.Get("rating")),
		ReviewCount:   normalize.OptionalInt(item.Get("reviews")),
		PricePerUnit:  normalize.PricePerUnit(price, size),
		ImageURL:      normalize.FirstString(item, "merchant_image_url", "aw_image_url"),
		Source:        domain.SourceStructuredAPI,
		IsRealPrice:   true,
	}, true
}
