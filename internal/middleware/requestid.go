package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/daigou/internal/domain"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in from proxies and back out to clients.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID tags each request with an id and echoes it on the response.
// An id forwarded by a proxy is kept when it is fit for a log line.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := forwardedRequestID(r)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(domain.NewContextWithRequestID(r.Context(), id)))
	})
}

// forwardedRequestID returns the incoming id, or "" when it is absent,
// oversized or holds anything other than printable ASCII.
func forwardedRequestID(r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if len(id) > maxRequestIDLength {
		return ""
	}
	for _, c := range id {
		if c <= ' ' || c > '~' {
			return ""
		}
	}
	return id
}

// GetRequestID returns the id RequestID stored on ctx.
func GetRequestID(ctx context.Context) string {
	return domain.RequestIDFromContext(ctx)
}
