package pricing

import "github.com/dukerupert/daigou/internal/freight"

// Engine prices line items against a freight tariff. It holds no mutable
// state; one Engine may serve any number of concurrent calculations.
type Engine struct {
	tariff *freight.Tariff
}

// NewEngine creates an engine for the given tariff. A nil tariff selects
// freight.Default.
func NewEngine(tariff *freight.Tariff) *Engine {
	if tariff == nil {
		tariff = freight.Default
	}
	return &Engine{tariff: tariff}
}

// Tariff returns the freight tariff used by the engine.
func (e *Engine) Tariff() *freight.Tariff {
	return e.tariff
}

// Compute prices every non-empty item in input order and sums the totals.
// It returns ErrEmptyResult when no item survives filtering.
func (e *Engine) Compute(items []LineItemInput, params Params) (*Result, error) {
	result := &Result{
		Items:  make([]LineItemResult, 0, len(items)),
		Params: params,
	}

	for _, item := range items {
		in := Coerce(item)
		if in.IsEmpty() {
			result.Skipped++
			continue
		}

		line := e.priceLine(in, params)
		result.Items = append(result.Items, line)
		result.GrandTotal += line.LineTotal
		result.TotalWeightSum += line.TotalWeight
	}

	if len(result.Items) == 0 {
		return nil, ErrEmptyResult
	}

	return result, nil
}

// priceLine derives the fields of one line. Item price and total weight
// come first, then the freight rate for that weight, then freight, then the
// converted total.
func (e *Engine) priceLine(in LineItemInput, p Params) LineItemResult {
	itemPrice := in.Quantity * in.UnitPrice
	totalWeight := in.Quantity * in.UnitWeight
	rate := e.tariff.Rate(totalWeight)
	intlFreight := totalWeight * rate
	subtotal := itemPrice + in.DomesticShipping + intlFreight

	return LineItemResult{
		LineItemInput:        in,
		ItemPrice:            itemPrice,
		TotalWeight:          totalWeight,
		FreightUnitRate:      rate,
		InternationalFreight: intlFreight,
		SubtotalRMB:          subtotal,
		LineTotal:            subtotal * p.ExchangeRate * (1 + p.ServiceFeeRate) * (1 + p.TaxRate),
	}
}
