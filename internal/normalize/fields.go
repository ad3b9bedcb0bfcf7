package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// FirstString returns the first non-blank string found at paths
func FirstString(item gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := item.Get(p); v.Exists() && v.Type != gjson.Null {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// Price reads a numeric or currency formatted price field.
// Missing, null and unparseable values yield nil.
func Price(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		if f, ok := ParsePriceText(v.Str); ok {
			return &f
		}
		if f, ok := ParsePriceLoose(v.Str); ok {
			return &f
		}
	}
	return nil
}

// OptionalFloat returns nil unless v is a number or a numeric string
func OptionalFloat(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		if f, ok := ParsePriceLoose(v.Str); ok {
			return &f
		}
	}
	return nil
}

// OptionalInt returns nil unless v is numeric
func OptionalInt(v gjson.Result) *int {
	f := OptionalFloat(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// Tristate reads a stock-style flag: bools, 0/1 and yes/no strings.
// Anything else is unknown.
func Tristate(v gjson.Result) *bool {
	var b bool
	switch v.Type {
	case gjson.True:
		b = true
	case gjson.False:
		b = false
	case gjson.Number:
		b = v.Float() != 0
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "1", "true", "yes", "y", "in stock", "instock", "available":
			b = true
		case "0", "false", "no", "n", "out of stock", "outofstock", "unavailable":
			b = false
		default:
			return nil
		}
	default:
		return nil
	}
	return &b
}
