// Package cookie provides cookie helpers for the worksheet session.
// All cookies the application sets go through this package so their
// attributes stay consistent.
package cookie

import (
	"net/http"
	"time"
)

// Config holds cookie configuration.
type Config struct {
	// Domain scopes cookies to a domain. Empty means host-only cookies,
	// which is what a single-host deployment wants.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("", false)            // development
//	cfg := cookie.NewConfig("calc.example", true) // production
func NewConfig(domain string, secure bool) *Config {
	return &Config{
		Domain: domain,
		Secure: secure,
	}
}

// SetSession sets an HttpOnly, SameSite=Lax session cookie on path "/".
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, c.build(name, value, maxAge, true))
}

// SetReadable sets a cookie that page scripts may read. Used for the CSRF
// token.
func (c *Config) SetReadable(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, c.build(name, value, maxAge, false))
}

// ClearSession removes a session cookie by setting MaxAge to -1.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, c.build(name, "", -1, true))
}

// SetSessionWithExpiry sets a session cookie with an explicit expiration time.
func (c *Config) SetSessionWithExpiry(w http.ResponseWriter, name, value string, expires time.Time) {
	ck := c.build(name, value, 0, true)
	ck.Expires = expires
	http.SetCookie(w, ck)
}

func (c *Config) build(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Cookie names used throughout the application.
const (
	// SessionCookieName identifies the visitor's worksheet.
	SessionCookieName = "daigou_session"

	// CSRFCookieName stores the CSRF token for form protection.
	CSRFCookieName = "daigou_csrf"
)
