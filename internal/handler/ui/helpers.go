package ui

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dukerupert/daigou/internal/display"
	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/middleware"
	"github.com/dukerupert/daigou/internal/pricing"
)

// Form field names shared with worksheet.html.
const (
	fieldName             = "name"
	fieldQuantity         = "quantity"
	fieldUnitPrice        = "unit_price"
	fieldDomesticShipping = "domestic_shipping"
	fieldUnitWeight       = "unit_weight"

	fieldExchangeRate      = "exchange_rate"
	fieldServiceFeePercent = "service_fee_percent"
	fieldTaxPercent        = "tax_percent"
	fieldRoundingDigits    = "rounding_digits"
)

// BaseTemplateData returns common data for all templates
func BaseTemplateData(r *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"CSRFToken": middleware.GetCSRFToken(r.Context()),
	}
}

// rowView is one editable row of the draft table.
type rowView struct {
	Index int
	Raw   pricing.RawRow
}

func rowViews(rows []pricing.LineItemInput) []rowView {
	views := make([]rowView, len(rows))
	for i, row := range rows {
		views[i] = rowView{Index: i, Raw: row.Raw()}
	}
	return views
}

// paramsView holds the parameter inputs as text so rejected input can be
// shown back to the user unchanged.
type paramsView struct {
	ExchangeRate      string
	ServiceFeePercent string
	TaxPercent        string
	RoundingDigits    int
}

func newParamsView(p pricing.Params) paramsView {
	return paramsView{
		ExchangeRate:      pricing.FormatNumber(p.ExchangeRate),
		ServiceFeePercent: percent(p.ServiceFeeRate),
		TaxPercent:        percent(p.TaxRate),
		RoundingDigits:    p.RoundingDigits,
	}
}

// percent renders a fraction as a whole-number percentage, trimming float
// noise such as 15.000000000000002.
func percent(rate float64) string {
	return pricing.FormatNumber(display.Round(rate*100, 6))
}

// rowsFromForm rebuilds the draft rows from the parallel row inputs. The
// second result is false when the form carried no row inputs at all.
func rowsFromForm(form url.Values) ([]pricing.LineItemInput, bool) {
	columns := [][]string{
		form[fieldName],
		form[fieldQuantity],
		form[fieldUnitPrice],
		form[fieldDomesticShipping],
		form[fieldUnitWeight],
	}

	n := 0
	present := false
	for _, col := range columns {
		if col != nil {
			present = true
		}
		n = max(n, len(col))
	}
	if !present {
		return nil, false
	}

	at := func(col []string, i int) string {
		if i < len(col) {
			return col[i]
		}
		return ""
	}

	rows := make([]pricing.LineItemInput, n)
	for i := range rows {
		rows[i] = pricing.ParseRow(pricing.RawRow{
			Name:             at(columns[0], i),
			Quantity:         at(columns[1], i),
			UnitPrice:        at(columns[2], i),
			DomesticShipping: at(columns[3], i),
			UnitWeight:       at(columns[4], i),
		})
	}
	return rows, true
}

// paramsFromForm reads the parameter inputs. Unlike row cells, parameters
// are not coerced: anything that is not a plain number is reported back as
// a field error. submitted is false when the form has no parameter inputs.
func paramsFromForm(form url.Values) (view paramsView, params pricing.Params, submitted bool, err error) {
	const op = "worksheet.params"

	if _, ok := form[fieldExchangeRate]; !ok {
		return view, params, false, nil
	}

	view = paramsView{
		ExchangeRate:      strings.TrimSpace(form.Get(fieldExchangeRate)),
		ServiceFeePercent: strings.TrimSpace(form.Get(fieldServiceFeePercent)),
		TaxPercent:        strings.TrimSpace(form.Get(fieldTaxPercent)),
	}

	rate, ok := parseDecimal(view.ExchangeRate)
	if !ok {
		err = domain.AddFieldError(err, fieldExchangeRate, "Exchange rate must be a number")
	}
	fee, ok := parseDecimal(view.ServiceFeePercent)
	if !ok {
		err = domain.AddFieldError(err, fieldServiceFeePercent, "Service fee must be a number")
	}
	tax, ok := parseDecimal(view.TaxPercent)
	if !ok {
		err = domain.AddFieldError(err, fieldTaxPercent, "Tax must be a number")
	}

	digits, convErr := strconv.Atoi(strings.TrimSpace(form.Get(fieldRoundingDigits)))
	if convErr != nil {
		err = domain.AddFieldError(err, fieldRoundingDigits, "Rounding must be 0, 1 or 2 decimal places")
	}
	view.RoundingDigits = digits

	if err != nil {
		if ve, ok := err.(*domain.ValidationError); ok {
			ve.Op = op
		}
		return view, params, true, err
	}

	params = pricing.Params{
		ExchangeRate:   rate,
		ServiceFeeRate: fee / 100,
		TaxRate:        tax / 100,
		RoundingDigits: digits,
	}
	return view, params, true, nil
}

func parseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// formErrors maps validation fields onto the worksheet's input names.
func formErrors(err error) map[string]string {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		return nil
	}

	out := make(map[string]string, len(fields))
	for field, msg := range fields {
		switch field {
		case "service_fee_rate":
			field = fieldServiceFeePercent
		case "tax_rate":
			field = fieldTaxPercent
		}
		out[field] = msg
	}
	return out
}
