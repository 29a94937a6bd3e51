package pricing

import (
	"math"

	"github.com/dukerupert/daigou/internal/domain"
)

// Default shared parameters used when the caller supplies none.
const (
	DefaultExchangeRate   = 4.4
	DefaultServiceFeeRate = 0.15
	DefaultTaxRate        = 0.05
	DefaultRoundingDigits = 0

	// MaxRoundingDigits bounds the display precision.
	MaxRoundingDigits = 2
)

// Params are the values shared by every line of one calculation.
type Params struct {
	ExchangeRate   float64 `json:"exchange_rate" yaml:"exchange_rate"`
	ServiceFeeRate float64 `json:"service_fee_rate" yaml:"service_fee_rate"` // fraction, 0.15 = 15%
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`                 // fraction, 0.05 = 5%
	RoundingDigits int     `json:"rounding_digits" yaml:"rounding_digits"`
}

// DefaultParams returns the agent's standard parameters.
func DefaultParams() Params {
	return Params{
		ExchangeRate:   DefaultExchangeRate,
		ServiceFeeRate: DefaultServiceFeeRate,
		TaxRate:        DefaultTaxRate,
		RoundingDigits: DefaultRoundingDigits,
	}
}

// Validate checks parameters collected from a form or request body.
// The engine itself never calls this; it prices whatever it is given.
func (p Params) Validate() error {
	const op = "params.validate"
	var err error

	if !finite(p.ExchangeRate) || p.ExchangeRate < 0 {
		err = addField(err, op, "exchange_rate", "Exchange rate must be a number of at least 0")
	}
	if !finite(p.ServiceFeeRate) || p.ServiceFeeRate < 0 {
		err = addField(err, op, "service_fee_rate", "Service fee must be a number of at least 0")
	}
	if !finite(p.TaxRate) || p.TaxRate < 0 {
		err = addField(err, op, "tax_rate", "Tax must be a number of at least 0")
	}
	if p.RoundingDigits < 0 || p.RoundingDigits > MaxRoundingDigits {
		err = addField(err, op, "rounding_digits", "Rounding must be 0, 1 or 2 decimal places")
	}

	return err
}

func addField(err error, op, field, message string) error {
	if err == nil {
		return domain.NewValidationError(op, field, message)
	}
	return domain.AddFieldError(err, field, message)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
