package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

const flushTimeout = 2 * time.Second

// SentryConfig configures error reporting. Reporting stays off unless
// Enabled is set and DSN is non-empty.
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string
	SampleRate  float64 // 0 means report every error
	Debug       bool
}

var reporting atomic.Bool

// InitSentry starts the Sentry client and returns a function that flushes
// pending events; call it on shutdown. With reporting off the returned
// function does nothing.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	reporting.Store(false)
	noop := func() {}

	switch {
	case !cfg.Enabled:
		logger.Info("error reporting disabled")
		return noop, nil
	case cfg.DSN == "":
		logger.Warn("error reporting enabled without SENTRY_DSN; leaving it off")
		return noop, nil
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 1
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  rate,
		Debug:       cfg.Debug,
	}); err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	reporting.Store(true)

	logger.Info("error reporting enabled",
		slog.String("environment", cfg.Environment),
		slog.String("release", cfg.Release),
		slog.Float64("sample_rate", rate),
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// IsEnabled reports whether events are being sent to Sentry.
func IsEnabled() bool {
	return reporting.Load()
}

// SentryMiddleware gives each request its own hub carrying the request
// details. Panics are reported and then re-raised so router.Recovery still
// writes the 500 response.
func SentryMiddleware() func(http.Handler) http.Handler {
	capture := sentryhttp.New(sentryhttp.Options{Repanic: true, Timeout: flushTimeout})

	return func(next http.Handler) http.Handler {
		reported := capture.Handle(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}
			reported.ServeHTTP(w, r)
		})
	}
}

// hubFor returns the request hub, or the process hub outside a request.
func hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// TagSession marks every later event of this request with the worksheet session.
func TagSession(ctx context.Context, sessionID string) {
	if !IsEnabled() || sessionID == "" {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.Scope().SetTag("session_id", sessionID)
	}
}

// AddBreadcrumb records a worksheet step so a later error report shows how
// the session got there.
func AddBreadcrumb(ctx context.Context, category, message string, data map[string]interface{}) {
	if !IsEnabled() {
		return
	}
	hubFor(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Data:      data,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}

// CaptureErrorFromContext reports err with extras attached. It is a no-op
// while reporting is off.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	hub := hubFor(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extras)
		hub.CaptureException(err)
	})
}
