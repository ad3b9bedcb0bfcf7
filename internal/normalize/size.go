// Package normalize holds the parsing helpers every supplier adapter uses to
// turn loosely shaped source text into domain.ProductResult fields.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tradeflow/backend/internal/domain"
)

// sizePattern matches "<number><unit>" package sizes in product titles.
// Longer units come first so "ml" wins over "m" and "kg" over "g".
var sizePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mm|cm|ml|m|kg|g|l|pack)\b`)

// ParseSize extracts the first package size from a product title
func ParseSize(title string) *domain.Size {
	match := sizePattern.FindStringSubmatch(title)
	if match == nil {
		return nil
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil || value <= 0 {
		return nil
	}

	unit := strings.ToLower(match[2])
	if unit == "l" {
		unit = "L"
	}

	return &domain.Size{
		Value: value,
		Unit:  unit,
		Label: strconv.FormatFloat(value, 'f', -1, 64) + unit,
	}
}

// SizeFields splits a parsed size into the three correlated result fields
func SizeFields(size *domain.Size) (value *float64, unit *string, label *string) {
	if size == nil {
		return nil, nil, nil
	}
	return domain.Float64Ptr(size.Value), domain.StringPtr(size.Unit), domain.StringPtr(size.Label)
}

// PricePerUnit divides price by the package size value, rounded to 4 places
func PricePerUnit(price *float64, size *domain.Size) *float64 {
	if price == nil || size == nil || size.Value <= 0 || *price <= 0 {
		return nil
	}
	return domain.Float64Ptr(math.Round(*price/size.Value*10000) / 10000)
}
