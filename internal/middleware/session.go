package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/daigou/internal/cookie"
	"github.com/dukerupert/daigou/internal/domain"
	"github.com/dukerupert/daigou/internal/service"
	"github.com/dukerupert/daigou/internal/telemetry"
	"github.com/google/uuid"
)

// SessionResolver finds or creates the worksheet behind a session id.
type SessionResolver interface {
	Worksheet(ctx context.Context, sessionID string) (*service.Worksheet, error)
}

// Session attaches the visitor's worksheet session to the request context,
// minting one (and setting the cookie) on first visit. The cookie is
// refreshed on every request so active sessions keep sliding forward.
func Session(resolver SessionResolver, cookies *cookie.Config, ttl time.Duration) func(http.Handler) http.Handler {
	maxAge := int(ttl / time.Second)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws, err := resolver.Worksheet(r.Context(), cookie.Get(r, cookie.SessionCookieName))
			if err != nil {
				rejectInternal(w, r, "session", err)
				return
			}

			id, err := uuid.Parse(ws.SessionID)
			if err != nil {
				rejectInternal(w, r, "session", err)
				return
			}

			cookies.SetSession(w, cookie.SessionCookieName, ws.SessionID, maxAge)

			ctx := domain.NewContextWithSession(r.Context(), &domain.Session{ID: id, IsNew: ws.IsNew})
			ctx = WithLogger(ctx, GetLogger(ctx).With(slog.String("session_id", ws.SessionID)))
			telemetry.TagSession(ctx, ws.SessionID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
