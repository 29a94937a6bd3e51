package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/daigou/internal"
	"github.com/dukerupert/daigou/internal/cookie"
	"github.com/dukerupert/daigou/internal/handler"
	"github.com/dukerupert/daigou/internal/handler/api"
	"github.com/dukerupert/daigou/internal/handler/ui"
	"github.com/dukerupert/daigou/internal/jobs"
	"github.com/dukerupert/daigou/internal/middleware"
	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/dukerupert/daigou/internal/router"
	"github.com/dukerupert/daigou/internal/routes"
	"github.com/dukerupert/daigou/internal/service"
	"github.com/dukerupert/daigou/internal/telemetry"
	"github.com/dukerupert/daigou/internal/worker"
	"github.com/dukerupert/daigou/internal/worksheet"
	"github.com/dukerupert/daigou/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// janitorInterval is how often idle worksheets are pruned.
const janitorInterval = time.Minute

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Metrics registry shared by HTTP and business metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(cfg.MetricsNamespace, registry)
	businessMetrics := telemetry.NewBusinessMetrics(cfg.MetricsNamespace, registry)

	// Initialize services
	defaults := cfg.Pricing.Params()
	store := worksheet.NewStore(defaults)
	calculator := service.NewCalculatorService(store, pricing.NewEngine(nil), businessMetrics, logger)

	logger.Info("Pricing defaults loaded",
		"exchange_rate", defaults.ExchangeRate,
		"service_fee_rate", defaults.ServiceFeeRate,
		"tax_rate", defaults.TaxRate,
		"rounding_digits", defaults.RoundingDigits,
	)

	// Load templates with renderer
	logger.Info("Loading templates...")
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	logger.Info("Templates loaded successfully")

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	cookies := cookie.NewConfig("", cfg.CookieSecure)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.CookieSecure)
	if cfg.Env == "dev" {
		// Relax CSP in development for easier debugging
		securityConfig.ContentSecurityPolicy = ""
	}

	csrfConfig := middleware.CSRFConfig{CookieConfig: cookies}

	quoteLimiterConfig := middleware.DefaultRateLimiterConfig()
	if cfg.QuoteRateLimit > 0 {
		quoteLimiterConfig.RequestsPerSecond = float64(cfg.QuoteRateLimit) / 60
		quoteLimiterConfig.BurstSize = cfg.QuoteRateLimit
	}
	quoteLimiter := middleware.NewRateLimiter(quoteLimiterConfig)
	defer quoteLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		router.Recovery(logger),
		telemetry.SentryMiddleware(),
		middleware.RequestID,
		metrics.Middleware,
		middleware.SecurityHeaders(securityConfig),
		middleware.MaxBodySize(cfg.MaxBodyBytes),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	// Static files
	r.Static("/static/", web.Static())

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	pages := r.Group(
		middleware.Session(calculator, cookies, cfg.SessionTTL),
		middleware.CSRF(csrfConfig),
	)
	routes.RegisterWorksheetRoutes(pages, routes.WorksheetDeps{
		WorksheetHandler: ui.NewWorksheetHandler(calculator, renderer),
	})

	apiRouter := r.Group(router.CORS(cfg.AllowedOrigins))
	routes.RegisterAPIRoutes(apiRouter, routes.APIDeps{
		QuoteHandler: api.NewQuoteHandler(calculator, logger),
	}, quoteLimiter.Middleware)

	// ==========================================================================
	// Background worker
	// ==========================================================================

	janitor := worker.NewWorker([]worker.Job{
		jobs.PruneIdleWorksheets(calculator, cfg.SessionTTL),
	}, worker.Config{PollInterval: janitorInterval}, logger)
	go janitor.Start(ctx)

	// ==========================================================================
	// Start server
	// ==========================================================================

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
