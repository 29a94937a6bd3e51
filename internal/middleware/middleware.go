package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/daigou/internal/domain"
)

type contextKey string

// Refusals issued by the middleware chain itself.
var (
	errFormExpired  = domain.Errorf(domain.EFORBIDDEN, "csrf", "Your form has expired. Reload the page and try again.")
	errRateLimited  = domain.Errorf(domain.ERATELIMIT, "ratelimit", "Too many requests")
	errBodyTooLarge = domain.Errorf(domain.ETOOLARGE, "limits", "Request body too large")
)

// statusByCode maps domain error codes to HTTP statuses. Unlisted codes are 500.
var statusByCode = map[string]int{
	domain.EINVALID:   http.StatusBadRequest,
	domain.EFORBIDDEN: http.StatusForbidden,
	domain.ENOTFOUND:  http.StatusNotFound,
	domain.ETOOLARGE:  http.StatusRequestEntityTooLarge,
	domain.EEMPTY:     http.StatusUnprocessableEntity,
	domain.ERATELIMIT: http.StatusTooManyRequests,
	domain.EINTERNAL:  http.StatusInternalServerError,
	domain.ENOTIMPL:   http.StatusNotImplemented,
}

// HTTPStatus returns the response status for a domain error code.
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WantsJSON reports whether errors for r should use the JSON envelope
// rather than plain text. API paths, .json exports and clients that send or
// accept JSON qualify.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasSuffix(r.URL.Path, ".json") {
		return true
	}
	for _, header := range []string{"Accept", "Content-Type"} {
		if strings.Contains(r.Header.Get(header), "application/json") {
			return true
		}
	}
	return false
}

type rejection struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// reject stops a request inside the chain. It lives here rather than in
// handler because handler imports this package.
func reject(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := HTTPStatus(code)

	logger := GetLogger(r.Context()).With(slog.String("code", code), slog.Int("status", status))
	if status >= http.StatusInternalServerError {
		logger.Error("request stopped in middleware", slog.Any("error", err))
	} else {
		logger.Info("request stopped in middleware", slog.String("reason", err.Error()))
	}

	message := domain.ErrorMessage(err)
	if !WantsJSON(r) {
		http.Error(w, message, status)
		return
	}

	var body rejection
	body.Error.Code = code
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// rejectInternal hides err behind a generic message.
func rejectInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	reject(w, r, domain.Internal(err, op, "An unexpected error occurred"))
}
