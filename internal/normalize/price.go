package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tradeflow/backend/internal/domain"
)

var (
	// amount after a currency symbol or code, e.g. "£1,299.99", "GBP 4.50"
	pricePatternSymbolPrefix = regexp.MustCompile(`(?i)(?:£|\$|€|\bgbp\b|\busd\b|\beur\b)\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	// bare amount with optional thousands separators
	pricePatternBare = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	nonNumericPattern = regexp.MustCompile(`[^0-9.]`)
)

// ParsePriceText extracts an amount from currency formatted text such as
// "£12.99 inc VAT". Amounts directly after a currency marker win over bare numbers.
func ParsePriceText(text string) (float64, bool) {
	if m := pricePatternSymbolPrefix.FindStringSubmatch(text); m != nil {
		return parseAmount(m[1])
	}
	if m := pricePatternBare.FindString(text); m != "" {
		return parseAmount(m)
	}
	return 0, false
}

// ParsePriceLoose strips every non-numeric character and parses the remainder.
// Commas are treated as thousands separators.
func ParsePriceLoose(raw string) (float64, bool) {
	cleaned := nonNumericPattern.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DetectCurrency maps a currency symbol or code in text to an ISO code,
// falling back to domain.DefaultCurrency
func DetectCurrency(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(text, "£") || strings.Contains(upper, "GBP"):
		return "GBP"
	case strings.Contains(text, "€") || strings.Contains(upper, "EUR"):
		return "EUR"
	case strings.Contains(text, "$") || strings.Contains(upper, "USD"):
		return "USD"
	}
	return domain.DefaultCurrency
}

// Currency normalizes a reported currency code
func Currency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return domain.DefaultCurrency
	}
	return code
}
