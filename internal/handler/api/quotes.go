package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/dukerupert/daigou/internal/display"
	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/handler"
	"github.com/dukerupert/daigou/internal/middleware"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/dukerupert/daigou/internal/service"
)

// MaxQuoteItems caps the number of line items in one quote request.
const MaxQuoteItems = 500

// QuoteHandler serves the stateless JSON calculator API
type QuoteHandler struct {
	calculator service.CalculatorService
	logger     *slog.Logger
}

// NewQuoteHandler creates a new quote API handler
func NewQuoteHandler(calculator service.CalculatorService, logger *slog.Logger) *QuoteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteHandler{
		calculator: calculator,
		logger:     logger,
	}
}

// quoteRequest is the body of POST /api/v1/quotes. Item cells are coerced
// like worksheet cells, so "12" is 12 and "n/a" is 0. Parameters left out
// fall back to the server defaults one by one.
type quoteRequest struct {
	Items  []pricing.RawRow `json:"items"`
	Params *paramsRequest   `json:"params,omitempty"`
}

type paramsRequest struct {
	ExchangeRate   *float64 `json:"exchange_rate"`
	ServiceFeeRate *float64 `json:"service_fee_rate"`
	TaxRate        *float64 `json:"tax_rate"`
	RoundingDigits *int     `json:"rounding_digits"`
}

func (p *paramsRequest) apply(defaults pricing.Params) pricing.Params {
	if p == nil {
		return defaults
	}
	if p.ExchangeRate != nil {
		defaults.ExchangeRate = *p.ExchangeRate
	}
	if p.ServiceFeeRate != nil {
		defaults.ServiceFeeRate = *p.ServiceFeeRate
	}
	if p.TaxRate != nil {
		defaults.TaxRate = *p.TaxRate
	}
	if p.RoundingDigits != nil {
		defaults.RoundingDigits = *p.RoundingDigits
	}
	return defaults
}

// quoteResponse carries the full-precision result alongside its rounded
// display form.
type quoteResponse struct {
	*pricing.Result
	Display display.Summary `json:"display"`
}

// Create handles POST /api/v1/quotes
//
// Response codes:
// - 200 OK: itemized quote
// - 400 Bad Request: malformed JSON or invalid parameters
// - 413 Request Entity Too Large: body over the configured limit
// - 422 Unprocessable Entity: no line item left after dropping empty rows
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "api.quote"

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, op, "Request body too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, op, "Request body must be a JSON object with an items list"))
		return
	}

	if len(req.Items) > MaxQuoteItems {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, op, "A quote may contain at most %d items", MaxQuoteItems))
		return
	}

	params := req.Params.apply(h.calculator.Defaults())

	result, err := h.calculator.Quote(r.Context(), pricing.ParseRows(req.Items), params)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	summary := display.Rounded(result, params.RoundingDigits)
	if !finiteSummary(summary) {
		handler.ErrorResponse(w, r, domain.Invalid(op, "Quote values are too large to represent"))
		return
	}

	middleware.GetLogger(r.Context(), h.logger).Debug("quote served", "items", len(result.Items))
	handler.WriteJSON(w, http.StatusOK, quoteResponse{Result: result, Display: summary})
}

// finiteSummary reports whether every value can be encoded as JSON. Huge
// inputs can overflow to +Inf, which encoding/json rejects.
func finiteSummary(s display.Summary) bool {
	if math.IsInf(s.GrandTotal, 0) || math.IsInf(s.TotalWeightSum, 0) {
		return false
	}
	for _, l := range s.Lines {
		for _, v := range []float64{l.ItemPrice, l.TotalWeight, l.InternationalFreight, l.SubtotalRMB, l.LineTotal} {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return false
			}
		}
	}
	return true
}

// bandResponse is one row of the rate card. MaxKg is null for the
// open-ended overflow band.
type bandResponse struct {
	MinKg     float64  `json:"min_kg"`
	MaxKg     *float64 `json:"max_kg"`
	RatePerKg float64  `json:"rate_per_kg"`
}

type tariffResponse struct {
	Bands []bandResponse `json:"bands"`
}

// Tariff handles GET /api/v1/tariff
func (h *QuoteHandler) Tariff(w http.ResponseWriter, r *http.Request) {
	bands := h.calculator.Tariff().Bands()

	resp := tariffResponse{Bands: make([]bandResponse, len(bands))}
	for i, b := range bands {
		resp.Bands[i] = bandResponse{MinKg: b.MinKg, RatePerKg: b.RatePerKg}
		if !math.IsInf(b.MaxKg, 1) {
			maxKg := b.MaxKg
			resp.Bands[i].MaxKg = &maxKg
		}
	}

	handler.WriteJSON(w, http.StatusOK, resp)
}
