package ui

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/daigou/internal/display"
	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/handler"
	"github.com/dukerupert/daigou/internal/middleware"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/dukerupert/daigou/internal/service"
)

// WorksheetHandler serves the order worksheet page and its form actions.
// Every form action first saves the posted rows to the draft, so edits are
// never lost by pressing a different button.
type WorksheetHandler struct {
	calculator service.CalculatorService
	renderer   *handler.Renderer
}

// NewWorksheetHandler creates a new worksheet handler
func NewWorksheetHandler(calculator service.CalculatorService, renderer *handler.Renderer) *WorksheetHandler {
	return &WorksheetHandler{
		calculator: calculator,
		renderer:   renderer,
	}
}

// pageState is the per-request part of the worksheet page.
type pageState struct {
	params *paramsView
	errors map[string]string
	result *display.Summary
	empty  bool
}

// Show handles GET /
func (h *WorksheetHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageState{})
}

// AddRow handles POST /worksheet/rows
func (h *WorksheetHandler) AddRow(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.saveForm(w, r)
	if !ok {
		return
	}

	if _, err := h.calculator.AddRow(r.Context(), sessionID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	redirectHome(w, r)
}

// RemoveRow handles POST /worksheet/rows/{index}/delete
func (h *WorksheetHandler) RemoveRow(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("worksheet.remove_row", "Row index must be a number"))
		return
	}

	sessionID, ok := h.saveForm(w, r)
	if !ok {
		return
	}

	if _, err := h.calculator.RemoveRow(r.Context(), sessionID, index); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	redirectHome(w, r)
}

// Commit handles POST /worksheet/commit ("update data")
func (h *WorksheetHandler) Commit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.saveForm(w, r)
	if !ok {
		return
	}

	if _, err := h.calculator.Commit(r.Context(), sessionID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	redirectHome(w, r)
}

// Discard handles POST /worksheet/discard. The posted form is ignored.
func (h *WorksheetHandler) Discard(w http.ResponseWriter, r *http.Request) {
	sessionID := domain.SessionIDFromContext(r.Context())

	if _, err := h.calculator.Discard(r.Context(), sessionID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	redirectHome(w, r)
}

// Calculate handles POST /worksheet/calculate. It prices the committed rows
// with the submitted parameters; uncommitted row edits are saved to the
// draft but not priced.
func (h *WorksheetHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.saveForm(w, r)
	if !ok {
		return
	}

	result, err := h.calculator.Calculate(r.Context(), sessionID)
	if errors.Is(err, pricing.ErrEmptyResult) {
		h.render(w, r, http.StatusOK, pageState{empty: true})
		return
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	summary := display.Rounded(result, result.Params.RoundingDigits)
	h.render(w, r, http.StatusOK, pageState{result: &summary})
}

// saveForm stores the posted rows and parameters. On failure it writes the
// response itself and returns false.
func (h *WorksheetHandler) saveForm(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	sessionID := domain.SessionIDFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("worksheet.form", "Invalid form data"))
		return "", false
	}

	if rows, ok := rowsFromForm(r.PostForm); ok {
		if err := h.calculator.SaveDraft(ctx, sessionID, rows); err != nil {
			handler.ErrorResponse(w, r, err)
			return "", false
		}
	}

	view, params, submitted, err := paramsFromForm(r.PostForm)
	if err == nil && submitted {
		err = h.calculator.SetParams(ctx, sessionID, params)
	}
	if err != nil {
		if !domain.IsValidationError(err) {
			handler.ErrorResponse(w, r, err)
			return "", false
		}

		middleware.GetLogger(ctx).Info("worksheet parameters rejected", "fields", formErrors(err))
		h.render(w, r, http.StatusBadRequest, pageState{params: &view, errors: formErrors(err)})
		return "", false
	}

	return sessionID, true
}

func (h *WorksheetHandler) render(w http.ResponseWriter, r *http.Request, status int, state pageState) {
	ws, err := h.calculator.Worksheet(r.Context(), domain.SessionIDFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	params := newParamsView(ws.Params)
	if state.params != nil {
		params = *state.params
	}

	data := BaseTemplateData(r)
	data["Rows"] = rowViews(ws.Draft)
	data["Params"] = params
	data["DigitChoices"] = digitChoices()
	data["Bands"] = h.calculator.Tariff().Bands()
	data["Dirty"] = ws.Dirty
	data["Errors"] = state.errors
	data["Result"] = state.result
	data["Empty"] = state.empty

	h.renderer.RenderHTTP(w, status, "worksheet", data)
}

func digitChoices() []int {
	choices := make([]int, 0, pricing.MaxRoundingDigits+1)
	for d := 0; d <= pricing.MaxRoundingDigits; d++ {
		choices = append(choices, d)
	}
	return choices
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
