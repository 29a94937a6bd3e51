package middleware

import "net/http"

// DefaultMaxBodySize fits a worksheet form or quote request of a few hundred rows.
const DefaultMaxBodySize int64 = 256 << 10

// MaxBodySize caps request bodies at limit bytes, or DefaultMaxBodySize when
// limit is not positive. A declared Content-Length over the cap is refused
// with 413 before the handler runs. Bodies of unknown length are cut off by
// http.MaxBytesReader and the handler sees the read error.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				reject(w, r, errBodyTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
