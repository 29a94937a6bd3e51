package middleware

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the address used to key rate limits and logs. The
// first X-Forwarded-For hop wins, then X-Real-IP, then the socket peer.
// Proxy headers are trusted as sent, so deploy behind a proxy that
// overwrites them.
func GetClientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
