package middleware

import (
	"fmt"
	"net/http"
)

// SecurityHeadersConfig lists the hardening headers sent with every
// response. Empty strings leave a header out.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
	PermissionsPolicy     string

	// HSTSMaxAge is in seconds. Keep it 0 while serving plain HTTP.
	HSTSMaxAge int
}

// DefaultSecurityHeadersConfig suits the worksheet pages, which load only
// their own scripts and styles. hsts turns on a one-year HSTS policy.
func DefaultSecurityHeadersConfig(hsts bool) SecurityHeadersConfig {
	cfg := SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=(), payment=()",
	}
	if hsts {
		cfg.HSTSMaxAge = 365 * 24 * 60 * 60
	}
	return cfg
}

// headers renders the config once into name/value pairs.
func (c SecurityHeadersConfig) headers() [][2]string {
	var out [][2]string
	add := func(name, value string) {
		if value != "" {
			out = append(out, [2]string{name, value})
		}
	}

	add("Content-Security-Policy", c.ContentSecurityPolicy)
	add("X-Frame-Options", c.FrameOptions)
	if c.ContentTypeNosniff {
		add("X-Content-Type-Options", "nosniff")
	}
	add("Referrer-Policy", c.ReferrerPolicy)
	add("Permissions-Policy", c.PermissionsPolicy)
	if c.HSTSMaxAge > 0 {
		add("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", c.HSTSMaxAge))
	}
	return out
}

// SecurityHeaders sets the configured headers before the handler runs.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	headers := config.headers()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range headers {
				h.Set(kv[0], kv[1])
			}
			next.ServeHTTP(w, r)
		})
	}
}
