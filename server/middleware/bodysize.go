package middleware

import "net/http"

const defaultMaxBodyBytes = 1 << 20 // 1MB; trigger events are small JSON

// BodySizeLimit returns middleware that restricts the request body to
// maxBytes. Non-positive values fall back to the default.
func BodySizeLimit(maxBytes int64) Middleware {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
