package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/handler"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/dukerupert/daigou/internal/service"
	"github.com/dukerupert/daigou/internal/worksheet"
	"github.com/dukerupert/daigou/web"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler   *WorksheetHandler
	svc       service.CalculatorService
	sessionID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	require.NoError(t, err)

	svc := service.NewCalculatorService(worksheet.NewStore(pricing.DefaultParams()), pricing.NewEngine(nil), nil, logger)
	ws, err := svc.Worksheet(context.Background(), "")
	require.NoError(t, err)

	return &testEnv{
		handler:   NewWorksheetHandler(svc, renderer),
		svc:       svc,
		sessionID: ws.SessionID,
	}
}

// request builds a request carrying the env's session, as the session
// middleware would.
func (e *testEnv) request(method, target string, form url.Values) *http.Request {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	ctx := domain.NewContextWithSession(req.Context(), &domain.Session{ID: uuid.MustParse(e.sessionID)})
	return req.WithContext(ctx)
}

func (e *testEnv) worksheet(t *testing.T) *service.Worksheet {
	t.Helper()
	ws, err := e.svc.Worksheet(context.Background(), e.sessionID)
	require.NoError(t, err)
	return ws
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

// worksheetForm builds a posted worksheet with the default parameters.
func worksheetForm(rows ...[5]string) url.Values {
	form := url.Values{
		fieldExchangeRate:      {"4.4"},
		fieldServiceFeePercent: {"15"},
		fieldTaxPercent:        {"5"},
		fieldRoundingDigits:    {"0"},
	}
	for _, row := range rows {
		form.Add(fieldName, row[0])
		form.Add(fieldQuantity, row[1])
		form.Add(fieldUnitPrice, row[2])
		form.Add(fieldDomesticShipping, row[3])
		form.Add(fieldUnitWeight, row[4])
	}
	return form
}

var jacket = [5]string{"jacket", "1", "200", "12", "1.2"}

func TestWorksheetHandler_Show(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()

	env.handler.Show(rec, env.request(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc := parseHTML(t, rec)
	assert.Equal(t, 5, doc.Find("#rate-card tr.band").Length())
	assert.Equal(t, "up to 1", strings.TrimSpace(doc.Find("#rate-card tr.band td").First().Text()))
	assert.Equal(t, 1, doc.Find("#rows tr.row").Length())

	qty, _ := doc.Find(`#rows input[name="quantity"]`).Attr("value")
	assert.Equal(t, "1", qty)

	rate, _ := doc.Find(`input[name="exchange_rate"]`).Attr("value")
	assert.Equal(t, "4.4", rate)
	fee, _ := doc.Find(`input[name="service_fee_percent"]`).Attr("value")
	assert.Equal(t, "15", fee)
	tax, _ := doc.Find(`input[name="tax_percent"]`).Attr("value")
	assert.Equal(t, "5", tax)
	digits, _ := doc.Find(`select[name="rounding_digits"] option[selected]`).Attr("value")
	assert.Equal(t, "0", digits)

	assert.Equal(t, 0, doc.Find("#result").Length())
	assert.Equal(t, 0, doc.Find("#dirty").Length())
}

func TestWorksheetHandler_CommitThenCalculate(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.Commit(rec, env.request(http.MethodPost, "/worksheet/commit", worksheetForm(jacket)))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	ws := env.worksheet(t)
	assert.False(t, ws.Dirty)
	require.Len(t, ws.Committed, 1)
	assert.Equal(t, "jacket", ws.Committed[0].Name)

	rec = httptest.NewRecorder()
	env.handler.Calculate(rec, env.request(http.MethodPost, "/worksheet/calculate", worksheetForm(jacket)))
	require.Equal(t, http.StatusOK, rec.Code)

	// (200 + 12 + 1.2*25) * 4.4 * 1.15 * 1.05 = 1285.746
	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("#result tr.line").Length())
	assert.Equal(t, "1,286", strings.TrimSpace(doc.Find("#grand-total").Text()))
	assert.Equal(t, "1.20", strings.TrimSpace(doc.Find("#total-weight").Text()), "total weight keeps two decimals")
	assert.Equal(t, "1", strings.TrimSpace(doc.Find("#result td.unit-weight").Text()))
	assert.Equal(t, "1,286", strings.TrimSpace(doc.Find("#result td.line-total").Text()))
}

func TestWorksheetHandler_CalculateIgnoresUncommittedRows(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.Commit(rec, env.request(http.MethodPost, "/worksheet/commit", worksheetForm(jacket)))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	edited := worksheetForm(jacket, [5]string{"boots", "1", "500", "0", "2"})
	rec = httptest.NewRecorder()
	env.handler.Calculate(rec, env.request(http.MethodPost, "/worksheet/calculate", edited))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("#result tr.line").Length(), "only committed rows are priced")
	assert.Equal(t, "1,286", strings.TrimSpace(doc.Find("#grand-total").Text()))
	assert.Equal(t, 2, doc.Find("#rows tr.row").Length(), "draft edits are kept")
	assert.Equal(t, 1, doc.Find("#dirty").Length())
}

func TestWorksheetHandler_CalculateRoundingDigits(t *testing.T) {
	env := newTestEnv(t)

	form := worksheetForm(jacket)
	form.Set(fieldRoundingDigits, "2")

	rec := httptest.NewRecorder()
	env.handler.Commit(rec, env.request(http.MethodPost, "/worksheet/commit", form))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.Calculate(rec, env.request(http.MethodPost, "/worksheet/calculate", form))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, "1,285.75", strings.TrimSpace(doc.Find("#grand-total").Text()))
	assert.Equal(t, "1.20", strings.TrimSpace(doc.Find("#total-weight").Text()))
	digits, _ := doc.Find(`select[name="rounding_digits"] option[selected]`).Attr("value")
	assert.Equal(t, "2", digits)
}

func TestWorksheetHandler_CalculateEmpty(t *testing.T) {
	env := newTestEnv(t)
	zero := [5]string{"", "0", "0", "0", "0"}

	rec := httptest.NewRecorder()
	env.handler.Commit(rec, env.request(http.MethodPost, "/worksheet/commit", worksheetForm(zero, zero)))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.Calculate(rec, env.request(http.MethodPost, "/worksheet/calculate", worksheetForm(zero, zero)))
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("#empty").Length())
	assert.Equal(t, 0, doc.Find("#result").Length())
}

func TestWorksheetHandler_InvalidParams(t *testing.T) {
	env := newTestEnv(t)

	form := worksheetForm(jacket)
	form.Set(fieldExchangeRate, "abc")
	form.Set(fieldTaxPercent, "-5")

	rec := httptest.NewRecorder()
	env.handler.Calculate(rec, env.request(http.MethodPost, "/worksheet/calculate", form))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find(`#errors li[data-field="exchange_rate"]`).Length())
	assert.Equal(t, 0, doc.Find("#result").Length())

	rate, _ := doc.Find(`input[name="exchange_rate"]`).Attr("value")
	assert.Equal(t, "abc", rate, "rejected input is shown back")

	assert.Equal(t, pricing.DefaultParams(), env.worksheet(t).Params, "rejected params are not stored")
}

func TestWorksheetHandler_NegativeParamsRejected(t *testing.T) {
	env := newTestEnv(t)

	form := worksheetForm(jacket)
	form.Set(fieldTaxPercent, "-5")

	rec := httptest.NewRecorder()
	env.handler.Commit(rec, env.request(http.MethodPost, "/worksheet/commit", form))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find(`#errors li[data-field="tax_percent"]`).Length())

	ws := env.worksheet(t)
	assert.True(t, ws.Dirty, "rows are saved to the draft but not committed")
	assert.Equal(t, "jacket", ws.Draft[0].Name)
}

func TestWorksheetHandler_AddRow(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.AddRow(rec, env.request(http.MethodPost, "/worksheet/rows", worksheetForm(jacket)))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	ws := env.worksheet(t)
	require.Len(t, ws.Draft, 2)
	assert.Equal(t, "jacket", ws.Draft[0].Name, "form edits are saved before adding")
	assert.Equal(t, worksheet.DefaultRow(), ws.Draft[1])
	assert.True(t, ws.Dirty)
}

func TestWorksheetHandler_RemoveRow(t *testing.T) {
	tests := []struct {
		name       string
		index      string
		wantStatus int
		wantRows   int
	}{
		{"first row", "0", http.StatusSeeOther, 1},
		{"last row", "1", http.StatusSeeOther, 1},
		{"out of range", "7", http.StatusBadRequest, 2},
		{"not a number", "x", http.StatusBadRequest, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			form := worksheetForm(jacket, [5]string{"boots", "1", "500", "0", "2"})

			req := env.request(http.MethodPost, "/worksheet/rows/"+tt.index+"/delete", form)
			req.SetPathValue("index", tt.index)
			rec := httptest.NewRecorder()

			env.handler.RemoveRow(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Len(t, env.worksheet(t).Draft, tt.wantRows)
		})
	}
}

func TestWorksheetHandler_Discard(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.Commit(rec, env.request(http.MethodPost, "/worksheet/commit", worksheetForm(jacket)))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.AddRow(rec, env.request(http.MethodPost, "/worksheet/rows", worksheetForm(jacket)))
	require.True(t, env.worksheet(t).Dirty)

	rec = httptest.NewRecorder()
	env.handler.Discard(rec, env.request(http.MethodPost, "/worksheet/discard", worksheetForm()))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	ws := env.worksheet(t)
	assert.False(t, ws.Dirty)
	assert.Equal(t, ws.Committed, ws.Draft)
}

func TestRowsFromForm(t *testing.T) {
	t.Run("no row inputs", func(t *testing.T) {
		rows, ok := rowsFromForm(url.Values{fieldExchangeRate: {"4.4"}})
		assert.False(t, ok)
		assert.Nil(t, rows)
	})

	t.Run("ragged columns are padded", func(t *testing.T) {
		form := url.Values{
			fieldName:      {"a", "b"},
			fieldQuantity:  {"2"},
			fieldUnitPrice: {"1,200.5", "oops"},
		}
		rows, ok := rowsFromForm(form)
		require.True(t, ok)
		require.Len(t, rows, 2)
		assert.Equal(t, pricing.LineItemInput{Name: "a", Quantity: 2, UnitPrice: 1200.5}, rows[0])
		assert.Equal(t, pricing.LineItemInput{Name: "b"}, rows[1])
	})
}

func TestParamsFromForm(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		_, _, submitted, err := paramsFromForm(url.Values{})
		assert.False(t, submitted)
		assert.NoError(t, err)
	})

	t.Run("percentages become fractions", func(t *testing.T) {
		form := worksheetForm()
		form.Set(fieldServiceFeePercent, "12.5")
		form.Set(fieldRoundingDigits, "1")

		_, params, submitted, err := paramsFromForm(form)
		require.NoError(t, err)
		assert.True(t, submitted)
		assert.Equal(t, 4.4, params.ExchangeRate)
		assert.InDelta(t, 0.125, params.ServiceFeeRate, 1e-12)
		assert.InDelta(t, 0.05, params.TaxRate, 1e-12)
		assert.Equal(t, 1, params.RoundingDigits)
	})

	t.Run("unparsable fields", func(t *testing.T) {
		form := url.Values{
			fieldExchangeRate:      {""},
			fieldServiceFeePercent: {"NaN"},
			fieldTaxPercent:        {"5"},
			fieldRoundingDigits:    {"two"},
		}
		view, _, submitted, err := paramsFromForm(form)
		assert.True(t, submitted)
		assert.Equal(t, "NaN", view.ServiceFeePercent)

		fields := formErrors(err)
		assert.Contains(t, fields, fieldExchangeRate)
		assert.Contains(t, fields, fieldServiceFeePercent)
		assert.Contains(t, fields, fieldRoundingDigits)
		assert.NotContains(t, fields, fieldTaxPercent)
	})
}

func TestFormErrors_RenamesRateFields(t *testing.T) {
	err := pricing.Params{ExchangeRate: 1, ServiceFeeRate: -1, TaxRate: -1}.Validate()

	fields := formErrors(err)
	assert.Contains(t, fields, fieldServiceFeePercent)
	assert.Contains(t, fields, fieldTaxPercent)
	assert.Nil(t, formErrors(nil))
}

func TestNewParamsView(t *testing.T) {
	view := newParamsView(pricing.DefaultParams())
	assert.Equal(t, paramsView{ExchangeRate: "4.4", ServiceFeePercent: "15", TaxPercent: "5"}, view)
}
