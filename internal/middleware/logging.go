// Package middleware holds HTTP middleware for the diagnostics API.
package middleware

import (
	"net/http"
	"time"

	"cache-factory/internal/common/logging"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs every request with method, path, status and
// duration. Server errors log at error level, client errors at warn.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", wrapped.statusCode),
			logging.Duration("duration", time.Since(start)),
			logging.String("remote_addr", r.RemoteAddr),
		}
		if r.URL.RawQuery != "" {
			fields = append(fields, logging.String("query", r.URL.RawQuery))
		}
		if ua := r.Header.Get("User-Agent"); ua != "" {
			fields = append(fields, logging.String("user_agent", ua))
		}

		switch {
		case wrapped.statusCode >= 500:
			logging.Error("HTTP request completed", nil, fields...)
		case wrapped.statusCode >= 400:
			logging.Warn("HTTP request completed", fields...)
		default:
			logging.Info("HTTP request completed", fields...)
		}
	})
}
