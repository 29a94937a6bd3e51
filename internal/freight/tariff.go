// Package freight prices international freight by the total weight of a line.
package freight

import "math"

// Tier is one weight band of a tariff. A weight belongs to the first tier
// whose MaxKg it does not exceed.
type Tier struct {
	MaxKg     float64 // inclusive upper bound
	RatePerKg float64 // RMB per kg
}

// Tariff maps a total weight in kg to a per-kg freight rate.
// A Tariff is immutable once built and safe for concurrent use.
type Tariff struct {
	tiers        []Tier
	overflowRate float64
}

// Default is the agent's published rate card:
//
//	<= 1 kg   30 RMB/kg
//	<= 4 kg   25 RMB/kg
//	<= 7 kg   19 RMB/kg
//	<= 10 kg  17 RMB/kg
//	>  10 kg  15 RMB/kg
var Default = &Tariff{
	tiers: []Tier{
		{MaxKg: 1, RatePerKg: 30},
		{MaxKg: 4, RatePerKg: 25},
		{MaxKg: 7, RatePerKg: 19},
		{MaxKg: 10, RatePerKg: 17},
	},
	overflowRate: 15,
}

// NewTariff builds a tariff from ascending tiers plus the rate applied above
// the last threshold.
func NewTariff(tiers []Tier, overflowRate float64) (*Tariff, error) {
	if len(tiers) == 0 {
		return nil, ErrNoTiers
	}
	if overflowRate < 0 || math.IsNaN(overflowRate) {
		return nil, ErrNegativeRate
	}

	prev := math.Inf(-1)
	for _, t := range tiers {
		if t.MaxKg < 0 {
			return nil, ErrNegativeThreshold
		}
		if t.RatePerKg < 0 || math.IsNaN(t.RatePerKg) {
			return nil, ErrNegativeRate
		}
		if !(t.MaxKg > prev) {
			return nil, ErrTiersNotAscending
		}
		prev = t.MaxKg
	}

	return &Tariff{
		tiers:        append([]Tier(nil), tiers...),
		overflowRate: overflowRate,
	}, nil
}

// Rate returns the per-kg rate for totalWeightKg using the Default tariff.
func Rate(totalWeightKg float64) float64 {
	return Default.Rate(totalWeightKg)
}

// Rate returns the per-kg rate for totalWeightKg. Thresholds are compared
// with <= in ascending order and the first match wins, so a weight sitting
// exactly on a boundary is priced by the lower band.
func (t *Tariff) Rate(totalWeightKg float64) float64 {
	for _, tier := range t.tiers {
		if totalWeightKg <= tier.MaxKg {
			return tier.RatePerKg
		}
	}
	return t.overflowRate
}

// Tiers returns a copy of the bounded tiers.
func (t *Tariff) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// OverflowRate returns the rate applied above the last threshold.
func (t *Tariff) OverflowRate() float64 {
	return t.overflowRate
}

// Band describes one row of a printed rate card.
type Band struct {
	MinKg     float64 // exclusive lower bound; 0 for the first band
	MaxKg     float64 // inclusive upper bound; +Inf for the overflow band
	RatePerKg float64
}

// Bands returns the full rate card including the open-ended overflow band.
func (t *Tariff) Bands() []Band {
	bands := make([]Band, 0, len(t.tiers)+1)
	lower := 0.0
	for _, tier := range t.tiers {
		bands = append(bands, Band{MinKg: lower, MaxKg: tier.MaxKg, RatePerKg: tier.RatePerKg})
		lower = tier.MaxKg
	}
	bands = append(bands, Band{MinKg: lower, MaxKg: math.Inf(1), RatePerKg: t.overflowRate})
	return bands
}
