package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	RecordRequest(method, endpoint string, statusCode int, duration time.Duration, requestSize, responseSize int64)
}

// InFlight tracks requests being served.
type InFlight interface {
	Inc()
	Dec()
}

// MetricsMiddleware records request count, latency and sizes. endpoint maps
// a request to a bounded label value.
func MetricsMiddleware(recorder RequestRecorder, inFlight InFlight, endpoint func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if inFlight != nil {
				inFlight.Inc()
				defer inFlight.Dec()
			}

			wrapped := NewResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}
			recorder.RecordRequest(r.Method, endpoint(r), wrapped.statusCode, time.Since(start), requestSize, wrapped.written)
		})
	}
}
