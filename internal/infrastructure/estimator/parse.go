package estimator

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tradeflow/backend/internal/domain"
	"github.com/tradeflow/backend/internal/normalize"
)

// Labels are stamped onto every parsed estimate
type Labels struct {
	Source       domain.Source
	Currency     string
	DefaultStore string
}

// ParseEstimates pulls the first JSON array out of model text and maps each
// element. Anything short of a valid array is ErrMalformedEstimate; elements
// without a name are dropped.
func ParseEstimates(text string, labels Labels, checkedAt time.Time) ([]domain.ProductResult, error) {
	raw, err := normalize.ExtractJSONArray(text)
	if err != nil {
		return []domain.ProductResult{}, fmt.Errorf("%w: %v", domain.ErrMalformedEstimate, err)
	}

	items := gjson.Parse(raw).Array()
	results := make([]domain.ProductResult, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		if product, ok := mapEstimate(item, labels, checkedAt); ok {
			results = append(results, product)
		}
	}
	return results, nil
}

func mapEstimate(item gjson.Result, labels Labels, checkedAt time.Time) (domain.ProductResult, bool) {
	name := normalize.FirstString(item, "productName", "product_name", "name", "title")
	if name == "" {
		return domain.ProductResult{}, false
	}

	price := normalize.Price(item.Get("price"))

	size := normalize.ParseSize(name)
	sizeValue, sizeUnit, sizeLabel := normalize.SizeFields(size)
	if v := normalize.OptionalFloat(item.Get("sizeValue")); v != nil && *v > 0 {
		if unit := normalize.FirstString(item, "sizeUnit"); unit != "" {
			sizeValue, sizeUnit = v, &unit
			label := normalize.FirstString(item, "sizeLabel")
			if label == "" {
				label = strconv.FormatFloat(*v, 'f', -1, 64) + unit
			}
			sizeLabel = &label
			size = &domain.Size{Value: *v, Unit: unit, Label: label}
		}
	}

	brand := normalize.FirstString(item, "brand", "manufacturer")
	if brand == "" {
		brand = normalize.InferBrand(name)
	}

	store := normalize.FirstString(item, "storeName", "store", "retailer")
	if store == "" {
		store = labels.DefaultStore
	}

	currency := normalize.FirstString(item, "currency")
	if currency == "" {
		currency = labels.Currency
	}

	return domain.ProductResult{
		ProductName:   name,
		Brand:         domain.StringPtr(brand),
		Price:         price,
		Currency:      normalize.Currency(currency),
		SizeValue:     sizeValue,
		SizeUnit:      sizeUnit,
		SizeLabel:     sizeLabel,
		StoreName:     store,
		ProductURL:    normalize.FirstString(item, "productUrl", "url"),
		SKU:           domain.StringPtr(normalize.FirstString(item, "sku")),
		InStock:       normalize.Tristate(item.Get("inStock")),
		LastCheckedAt: checkedAt,
		PricePerUnit:  normalize.PricePerUnit(price, size),
		Source:        labels.Source,
		IsRealPrice:   false,
	}, true
}
