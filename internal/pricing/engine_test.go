package pricing_test

import (
	"errors"
	"math"
	"testing"

	"github.com/dukerupert/daigou/internal/freight"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() pricing.Params {
	return pricing.Params{ExchangeRate: 4.4, ServiceFeeRate: 0.15, TaxRate: 0.05}
}

// expectedLineTotal restates the landed-cost formula independently of the engine.
func expectedLineTotal(in pricing.LineItemInput, p pricing.Params) float64 {
	h := in.Quantity * in.UnitWeight
	d := in.Quantity * in.UnitPrice
	f := h * freight.Rate(h)
	return (d + in.DomesticShipping + f) * p.ExchangeRate * (1 + p.ServiceFeeRate) * (1 + p.TaxRate)
}

func TestEngine_Compute_BulkOrderExample(t *testing.T) {
	engine := pricing.NewEngine(nil)

	result, err := engine.Compute([]pricing.LineItemInput{
		{Name: "phone case", Quantity: 1000, UnitPrice: 4.8, DomesticShipping: 0, UnitWeight: 0.14},
	}, defaultParams())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	line := result.Items[0]
	assert.Equal(t, "phone case", line.Name)
	assert.InDelta(t, 4800.0, line.ItemPrice, 1e-9, "D = 1000 * 4.8")
	assert.InDelta(t, 140.0, line.TotalWeight, 1e-9, "H = 1000 * 0.14")
	assert.Equal(t, 15.0, line.FreightUnitRate, "140 kg is above the 10 kg band")
	assert.InDelta(t, 2100.0, line.InternationalFreight, 1e-9, "F = 140 * 15")
	assert.InDelta(t, 6900.0, line.SubtotalRMB, 1e-9)
	assert.InDelta(t, 36659.70, line.LineTotal, 1e-6, "6900 * 4.4 * 1.15 * 1.05")

	assert.Equal(t, line.LineTotal, result.GrandTotal)
	assert.Equal(t, line.TotalWeight, result.TotalWeightSum)
	assert.Equal(t, 0, result.Skipped)
}

func TestEngine_Compute_LineFormula(t *testing.T) {
	engine := pricing.NewEngine(nil)
	params := defaultParams()

	items := []pricing.LineItemInput{
		{Quantity: 1, UnitPrice: 10, UnitWeight: 0.2},
		{Quantity: 3, UnitPrice: 12.5, DomesticShipping: 8, UnitWeight: 1.2},
		{Quantity: 2, UnitPrice: 99.9, DomesticShipping: 15, UnitWeight: 2},
		{Quantity: 5, UnitPrice: 30, DomesticShipping: 6, UnitWeight: 1.7},
		{Quantity: 12, UnitPrice: 3.3, DomesticShipping: 0, UnitWeight: 0.9},
	}

	result, err := engine.Compute(items, params)
	require.NoError(t, err)
	require.Len(t, result.Items, len(items))

	for i, in := range items {
		assert.Equal(t, expectedLineTotal(in, params), result.Items[i].LineTotal, "line %d", i)
	}
}

func TestEngine_Compute_FreightBoundaryUsesLowerBand(t *testing.T) {
	engine := pricing.NewEngine(nil)

	result, err := engine.Compute([]pricing.LineItemInput{
		{Quantity: 2, UnitWeight: 2}, // 4 kg exactly
		{Quantity: 1, UnitWeight: 1}, // 1 kg exactly
		{Quantity: 5, UnitWeight: 2}, // 10 kg exactly
	}, defaultParams())

	require.NoError(t, err)
	assert.Equal(t, 25.0, result.Items[0].FreightUnitRate)
	assert.Equal(t, 30.0, result.Items[1].FreightUnitRate)
	assert.Equal(t, 17.0, result.Items[2].FreightUnitRate)
}

func TestEngine_Compute_FreightTierPerLine(t *testing.T) {
	engine := pricing.NewEngine(nil)

	// Each line is rated on its own weight, not the order total.
	result, err := engine.Compute([]pricing.LineItemInput{
		{Quantity: 1, UnitWeight: 0.5},
		{Quantity: 1, UnitWeight: 0.5},
	}, defaultParams())

	require.NoError(t, err)
	assert.Equal(t, 30.0, result.Items[0].FreightUnitRate)
	assert.Equal(t, 30.0, result.Items[1].FreightUnitRate)
	assert.Equal(t, 1.0, result.TotalWeightSum)
}

func TestEngine_Compute_EmptyResult(t *testing.T) {
	engine := pricing.NewEngine(nil)

	tests := []struct {
		name  string
		items []pricing.LineItemInput
	}{
		{"nil input", nil},
		{"empty input", []pricing.LineItemInput{}},
		{"all zero rows", []pricing.LineItemInput{{}, {Name: "named but zero"}, {}}},
		{"only invalid numbers", []pricing.LineItemInput{{Quantity: math.NaN(), UnitPrice: math.Inf(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Compute(tt.items, defaultParams())

			assert.Nil(t, result, "empty input must not produce a zero-valued result")
			assert.True(t, errors.Is(err, pricing.ErrEmptyResult))

			var pe *pricing.PricingError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "empty", pe.ErrorCode())
		})
	}
}

func TestEngine_Compute_SingleNonZeroFieldIsKept(t *testing.T) {
	engine := pricing.NewEngine(nil)
	params := defaultParams()

	tests := []struct {
		name string
		item pricing.LineItemInput
	}{
		{"domestic shipping only", pricing.LineItemInput{DomesticShipping: 5}},
		{"quantity only", pricing.LineItemInput{Quantity: 1}},
		{"unit price only", pricing.LineItemInput{UnitPrice: 9.9}},
		{"unit weight only", pricing.LineItemInput{UnitWeight: 0.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Compute([]pricing.LineItemInput{tt.item}, params)
			require.NoError(t, err)
			require.Len(t, result.Items, 1)
			assert.Equal(t, expectedLineTotal(tt.item, params), result.Items[0].LineTotal)
		})
	}

	t.Run("shipping only line total", func(t *testing.T) {
		result, err := engine.Compute([]pricing.LineItemInput{{DomesticShipping: 5}}, params)
		require.NoError(t, err)
		assert.InDelta(t, 5*4.4*1.15*1.05, result.GrandTotal, 1e-9)
		assert.Equal(t, 30.0, result.Items[0].FreightUnitRate, "zero weight is in the first band")
		assert.Equal(t, 0.0, result.Items[0].InternationalFreight)
	})
}

func TestEngine_Compute_FiltersEmptyRowsAndPreservesOrder(t *testing.T) {
	engine := pricing.NewEngine(nil)

	result, err := engine.Compute([]pricing.LineItemInput{
		{Name: "a", Quantity: 1, UnitPrice: 1},
		{},
		{Name: "b", Quantity: 2, UnitPrice: 2},
		{Name: "blank"},
		{Name: "c", Quantity: 3, UnitPrice: 3},
	}, defaultParams())

	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "a", result.Items[0].Name)
	assert.Equal(t, "b", result.Items[1].Name)
	assert.Equal(t, "c", result.Items[2].Name)
	assert.Equal(t, 2, result.Skipped)
}

func TestEngine_Compute_Aggregates(t *testing.T) {
	engine := pricing.NewEngine(nil)

	result, err := engine.Compute([]pricing.LineItemInput{
		{Quantity: 2, UnitPrice: 35, DomesticShipping: 8, UnitWeight: 0.6},
		{Quantity: 10, UnitPrice: 6.5, DomesticShipping: 12, UnitWeight: 0.45},
		{Quantity: 1, UnitPrice: 299, DomesticShipping: 0, UnitWeight: 3.2},
	}, defaultParams())
	require.NoError(t, err)

	var total, weight float64
	for _, line := range result.Items {
		total += line.LineTotal
		weight += line.TotalWeight
	}
	assert.Equal(t, total, result.GrandTotal)
	assert.Equal(t, weight, result.TotalWeightSum)
}

func TestEngine_Compute_Superposition(t *testing.T) {
	engine := pricing.NewEngine(nil)
	params := defaultParams()

	a := pricing.LineItemInput{Name: "jacket", Quantity: 1, UnitPrice: 268, DomesticShipping: 10, UnitWeight: 1.5}
	b := pricing.LineItemInput{Name: "socks", Quantity: 6, UnitPrice: 9.9, DomesticShipping: 0, UnitWeight: 0.05}

	ra, err := engine.Compute([]pricing.LineItemInput{a}, params)
	require.NoError(t, err)
	rb, err := engine.Compute([]pricing.LineItemInput{b}, params)
	require.NoError(t, err)
	rab, err := engine.Compute([]pricing.LineItemInput{a, b}, params)
	require.NoError(t, err)

	assert.InDelta(t, ra.GrandTotal+rb.GrandTotal, rab.GrandTotal, 1e-9)
	assert.Equal(t, ra.Items[0], rab.Items[0], "lines must not affect each other")
	assert.Equal(t, rb.Items[0], rab.Items[1])
}

func TestEngine_Compute_Idempotency(t *testing.T) {
	engine := pricing.NewEngine(nil)
	items := []pricing.LineItemInput{
		{Name: "tea", Quantity: 3, UnitPrice: 45.6, DomesticShipping: 7, UnitWeight: 0.35},
		{Name: "bag", Quantity: 1, UnitPrice: 188, DomesticShipping: 0, UnitWeight: 0.8},
	}

	first, err := engine.Compute(items, defaultParams())
	require.NoError(t, err)
	second, err := engine.Compute(items, defaultParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Compute_DoesNotMutateInput(t *testing.T) {
	engine := pricing.NewEngine(nil)
	items := []pricing.LineItemInput{{Quantity: -2, UnitPrice: 5}}

	_, err := engine.Compute(items, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, -2.0, items[0].Quantity)
}

func TestEngine_Compute_ZeroExchangeRate(t *testing.T) {
	engine := pricing.NewEngine(nil)
	params := pricing.Params{ExchangeRate: 0, ServiceFeeRate: 0.15, TaxRate: 0.05}

	result, err := engine.Compute([]pricing.LineItemInput{
		{Quantity: 3, UnitPrice: 20, DomesticShipping: 5, UnitWeight: 1},
	}, params)

	require.NoError(t, err, "a zero rate is a computed zero, not an empty result")
	require.Len(t, result.Items, 1)
	assert.Equal(t, 0.0, result.GrandTotal)
	assert.Greater(t, result.Items[0].SubtotalRMB, 0.0)
}

func TestEngine_Compute_NegativeInputsClampToZero(t *testing.T) {
	engine := pricing.NewEngine(nil)

	result, err := engine.Compute([]pricing.LineItemInput{
		{Quantity: 2, UnitPrice: -10, DomesticShipping: 4, UnitWeight: -1},
	}, defaultParams())

	require.NoError(t, err)
	line := result.Items[0]
	assert.Equal(t, 0.0, line.UnitPrice)
	assert.Equal(t, 0.0, line.UnitWeight)
	assert.Equal(t, 0.0, line.ItemPrice)
	assert.GreaterOrEqual(t, line.LineTotal, 0.0)

	_, err = engine.Compute([]pricing.LineItemInput{{Quantity: -1, UnitPrice: -1}}, defaultParams())
	assert.ErrorIs(t, err, pricing.ErrEmptyResult, "a row of only negatives clamps to empty")
}

func TestEngine_Compute_CustomTariff(t *testing.T) {
	tariff, err := freight.NewTariff([]freight.Tier{{MaxKg: 5, RatePerKg: 10}}, 8)
	require.NoError(t, err)
	engine := pricing.NewEngine(tariff)

	result, err := engine.Compute([]pricing.LineItemInput{
		{Quantity: 1, UnitWeight: 5},
		{Quantity: 1, UnitWeight: 6},
	}, pricing.Params{ExchangeRate: 1})

	require.NoError(t, err)
	assert.Equal(t, 10.0, result.Items[0].FreightUnitRate)
	assert.Equal(t, 8.0, result.Items[1].FreightUnitRate)
	assert.Same(t, tariff, engine.Tariff())
}

func TestEngine_ImplementsCalculator(t *testing.T) {
	var _ pricing.Calculator = pricing.NewEngine(nil)
	assert.Same(t, freight.Default, pricing.NewEngine(nil).Tariff())
}
