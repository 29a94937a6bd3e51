// Package pricing computes the landed cost of purchasing-agent orders.
//
// For every line the engine derives the item price, total weight, freight
// rate and international freight, then converts the RMB subtotal into the
// home currency and applies the service fee and tax multipliers:
//
//	lineTotal = (qty*unitPrice + domesticShipping + freight) * exchangeRate * (1+serviceFee) * (1+tax)
//
// The engine works on full-precision floats. Rounding for display is left
// to the caller (see package display).
package pricing

// LineItemInput is one row of the order worksheet.
type LineItemInput struct {
	Name             string  `json:"name"`
	Quantity         float64 `json:"quantity"`
	UnitPrice        float64 `json:"unit_price"`        // RMB
	DomesticShipping float64 `json:"domestic_shipping"` // RMB
	UnitWeight       float64 `json:"unit_weight"`       // kg
}

// IsEmpty reports whether every numeric field is exactly zero. This is the
// only test used to drop a row; a row with just shipping or just weight is kept.
func (in LineItemInput) IsEmpty() bool {
	return in.Quantity == 0 && in.UnitPrice == 0 && in.DomesticShipping == 0 && in.UnitWeight == 0
}

// LineItemResult is a priced line. Input fields are passed through.
type LineItemResult struct {
	LineItemInput

	ItemPrice            float64 `json:"item_price"`            // D = qty * unit price (RMB)
	TotalWeight          float64 `json:"total_weight"`          // H = qty * unit weight (kg)
	FreightUnitRate      float64 `json:"freight_unit_rate"`     // RMB/kg for H
	InternationalFreight float64 `json:"international_freight"` // F = H * rate (RMB)
	SubtotalRMB          float64 `json:"subtotal_rmb"`          // D + domestic shipping + F
	LineTotal            float64 `json:"line_total"`            // home currency, fee and tax included
}

// Result is the itemized output of one calculation.
type Result struct {
	Items          []LineItemResult `json:"items"`
	GrandTotal     float64          `json:"grand_total"`
	TotalWeightSum float64          `json:"total_weight_sum"`
	Skipped        int              `json:"skipped"` // rows dropped as empty
	Params         Params           `json:"params"`
}

// Calculator prices a snapshot of line items.
// Implementations must be safe for concurrent use.
type Calculator interface {
	Compute(items []LineItemInput, params Params) (*Result, error)
}
