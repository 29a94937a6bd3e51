package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/daigou/internal/pricing"
	"github.com/joho/godotenv"
)

type Config struct {
	Env              string
	LogLevel         string
	Port             uint16
	BaseURL          string
	CookieSecure     bool
	SessionTTL       time.Duration
	MaxBodyBytes     int64
	MetricsNamespace string
	AllowedOrigins   []string
	QuoteRateLimit   int // quote requests per minute per client
	Pricing          PricingConfig
	Sentry           SentryConfig
}

// PricingConfig holds the parameters a new worksheet starts with.
// Percentages are entered as whole numbers (15 means 15 %).
type PricingConfig struct {
	ExchangeRate      float64
	ServiceFeePercent float64
	TaxPercent        float64
	RoundingDigits    int
}

// Params converts the configured defaults to engine parameters.
func (c PricingConfig) Params() pricing.Params {
	return pricing.Params{
		ExchangeRate:   c.ExchangeRate,
		ServiceFeeRate: c.ServiceFeePercent / 100,
		TaxRate:        c.TaxPercent / 100,
		RoundingDigits: c.RoundingDigits,
	}
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN         string
	Enabled     bool
	Environment string
	Release     string
	SampleRate  float64
	Debug       bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	return loadConfig()
}

// loadConfig builds the configuration from the process environment.
func loadConfig() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvInt("PORT", 3000),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		CookieSecure:     getEnvBool("COOKIE_SECURE", false),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_KB", 256)) * 1024,
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "daigou"),
		AllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),
		QuoteRateLimit:   int(getEnvInt("QUOTE_RATE_LIMIT", 60)),
		Pricing: PricingConfig{
			ExchangeRate:      getEnvFloat("DEFAULT_EXCHANGE_RATE", pricing.DefaultExchangeRate),
			ServiceFeePercent: getEnvFloat("DEFAULT_SERVICE_FEE_PERCENT", pricing.DefaultServiceFeeRate*100),
			TaxPercent:        getEnvFloat("DEFAULT_TAX_PERCENT", pricing.DefaultTaxRate*100),
			RoundingDigits:    int(getEnvInt("DEFAULT_ROUNDING_DIGITS", pricing.DefaultRoundingDigits)),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Enabled:     getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:     getEnv("SENTRY_RELEASE", ""),
			SampleRate:  getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			Debug:       getEnvBool("SENTRY_DEBUG", false),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.SessionTTL <= 0 {
		slog.Default().Warn("Invalid session TTL. Using default: 120 minutes")
		cfg.SessionTTL = 120 * time.Minute
	}

	if err := cfg.Pricing.Params().Validate(); err != nil {
		return nil, fmt.Errorf("invalid pricing defaults: %w", err)
	}

	if cfg.Env == "prod" && !cfg.CookieSecure {
		slog.Default().Warn("COOKIE_SECURE is false in production")
	}

	return cfg, nil
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
