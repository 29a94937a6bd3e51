// Package display turns full-precision pricing results into the rounded,
// formatted values shown in the worksheet, the JSON API and the CLI.
package display

import (
	"fmt"
	"math"

	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Round rounds f to digits decimal places, halves away from zero.
// Non-finite values are returned unchanged.
func Round(f float64, digits int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	v, _ := decimal.NewFromFloat(f).Round(int32(digits)).Float64()
	return v
}

// Line is a priced line with every derived field rounded independently.
type Line struct {
	Name                 string  `json:"name"`
	Quantity             float64 `json:"quantity"`
	UnitPrice            float64 `json:"unit_price"`
	DomesticShipping     float64 `json:"domestic_shipping"`
	UnitWeight           float64 `json:"unit_weight"`
	ItemPrice            float64 `json:"item_price"`
	TotalWeight          float64 `json:"total_weight"`
	FreightUnitRate      float64 `json:"freight_unit_rate"`
	InternationalFreight float64 `json:"international_freight"`
	SubtotalRMB          float64 `json:"subtotal_rmb"`
	LineTotal            float64 `json:"line_total"`
}

// MinWeightDigits is the fewest decimals the order's total weight is shown
// with, whatever the money rounding.
const MinWeightDigits = 2

// WeightDigits returns the decimals used for the total weight.
func WeightDigits(digits int) int {
	return max(MinWeightDigits, digits)
}

// Summary is the display form of a pricing.Result.
type Summary struct {
	Lines          []Line  `json:"items"`
	GrandTotal     float64 `json:"grand_total"`
	TotalWeightSum float64 `json:"total_weight_sum"`
	Digits         int     `json:"rounding_digits"`
	WeightDigits   int     `json:"weight_digits"`
	Skipped        int     `json:"skipped"`
}

// Rounded builds the display summary of r. Totals are rounded from the
// full-precision sums, not summed from rounded lines.
func Rounded(r *pricing.Result, digits int) Summary {
	if r == nil {
		return Summary{Digits: digits, WeightDigits: WeightDigits(digits)}
	}

	s := Summary{
		Lines:          make([]Line, 0, len(r.Items)),
		GrandTotal:     Round(r.GrandTotal, digits),
		TotalWeightSum: Round(r.TotalWeightSum, WeightDigits(digits)),
		Digits:         digits,
		WeightDigits:   WeightDigits(digits),
		Skipped:        r.Skipped,
	}

	for _, it := range r.Items {
		s.Lines = append(s.Lines, Line{
			Name:                 it.Name,
			Quantity:             it.Quantity,
			UnitPrice:            Round(it.UnitPrice, digits),
			DomesticShipping:     Round(it.DomesticShipping, digits),
			UnitWeight:           Round(it.UnitWeight, digits),
			ItemPrice:            Round(it.ItemPrice, digits),
			TotalWeight:          Round(it.TotalWeight, digits),
			FreightUnitRate:      Round(it.FreightUnitRate, digits),
			InternationalFreight: Round(it.InternationalFreight, digits),
			SubtotalRMB:          Round(it.SubtotalRMB, digits),
			LineTotal:            Round(it.LineTotal, digits),
		})
	}

	return s
}

// Formatter renders numbers with locale digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a formatter for the given language tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// DefaultFormatter groups thousands with commas.
var DefaultFormatter = NewFormatter(language.English)

// Number formats f with exactly digits decimal places, e.g. 34,247.16.
func (f *Formatter) Number(v float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", digits), Round(v, digits))
}

// Number formats v with the default formatter.
func Number(v float64, digits int) string {
	return DefaultFormatter.Number(v, digits)
}
