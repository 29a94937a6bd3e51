package handler

import (
	"html/template"
	"math"
	"time"

	"github.com/dukerupert/daigou/internal/display"
	"github.com/dukerupert/daigou/internal/freight"
	"github.com/dukerupert/daigou/internal/pricing"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		// amount formats an already rounded value with thousands grouping.
		"amount": func(v float64, digits int) string {
			return display.Number(v, digits)
		},
		"num":       pricing.FormatNumber,
		"bandLabel": bandLabel,
		"plural": func(n int, one, many string) string {
			if n == 1 {
				return one
			}
			return many
		},
	}
}

// bandLabel describes a weight band: "up to 1", "over 1 up to 4", "over 10".
func bandLabel(b freight.Band) string {
	switch {
	case math.IsInf(b.MaxKg, 1):
		return "over " + pricing.FormatNumber(b.MinKg)
	case b.MinKg == 0:
		return "up to " + pricing.FormatNumber(b.MaxKg)
	default:
		return "over " + pricing.FormatNumber(b.MinKg) + " up to " + pricing.FormatNumber(b.MaxKg)
	}
}
