package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/dukerupert/daigou/internal/cookie"
)

const (
	// CSRFTokenLength is the number of random bytes in a token.
	CSRFTokenLength = 32

	// CSRFHeaderName lets scripted clients submit the token without a form.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormFieldName is the hidden input every worksheet form carries.
	CSRFFormFieldName = "csrf_token"

	CSRFContextKey contextKey = "csrf_token"
)

// CSRFConfig configures the double-submit cookie.
type CSRFConfig struct {
	CookieConfig *cookie.Config // required
	CookieName   string         // defaults to cookie.CSRFCookieName
	CookieMaxAge int            // seconds; defaults to one day
}

var csrfTokenChars = base64.RawURLEncoding.EncodedLen(CSRFTokenLength)

// CSRF guards the worksheet forms with a double-submit cookie. Every request
// gets a token in context for the templates. Unsafe methods must send the
// same token back in the form or header or they are answered 403.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieConfig == nil {
		panic("csrf: CookieConfig is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = cookie.CSRFCookieName
	}
	if cfg.CookieMaxAge == 0 {
		cfg.CookieMaxAge = 24 * 60 * 60
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookie.Get(r, cfg.CookieName)
			if len(token) != csrfTokenChars {
				fresh, err := newCSRFToken()
				if err != nil {
					rejectInternal(w, r, "csrf", err)
					return
				}
				token = fresh
				cfg.CookieConfig.SetReadable(w, cfg.CookieName, token, cfg.CookieMaxAge)
			}
			r = r.WithContext(context.WithValue(r.Context(), CSRFContextKey, token))

			if !changesState(r.Method) || tokensMatch(token, submittedCSRFToken(r)) {
				next.ServeHTTP(w, r)
				return
			}
			reject(w, r, errFormExpired)
		})
	}
}

// GetCSRFToken returns the token CSRF placed on ctx, or "".
func GetCSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFContextKey).(string)
	return token
}

// newCSRFToken fails rather than fall back to a weaker random source.
func newCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func submittedCSRFToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeaderName); token != "" {
		return token
	}
	return r.PostFormValue(CSRFFormFieldName)
}

func tokensMatch(want, got string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

func changesState(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}
