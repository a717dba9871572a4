package middleware

import (
	"net/http"
	"time"

	"github.com/skillsenselab/clipwise/logger"
)

// RequestLogger returns middleware that logs every request with method, path,
// status code, and duration. Health probes are silently skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbeEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"duration_ms": duration.Milliseconds(),
			}
			if id := r.Header.Get("X-Request-Id"); id != "" {
				fields["request_id"] = id
			}

			logByStatus(log, fields, sw.status)
		})
	}
}

func isProbeEndpoint(path string) bool {
	return path == "/healthz" || path == "/livez"
}

// logByStatus logs request fields at a level matching the HTTP status. A nil
// log falls back to the global logger.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	logErr := logger.Error
	logWarn := logger.Warn
	logDebug := logger.Debug
	if log != nil {
		logErr = log.Error
		logWarn = log.Warn
		logDebug = log.Debug
	}

	switch {
	case status >= 500:
		logErr("request completed", fields)
	case status >= 400:
		logWarn("request completed", fields)
	default:
		logDebug("request completed", fields)
	}
}
