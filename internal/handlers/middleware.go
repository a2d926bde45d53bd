package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// RequestIDHeader carries the request correlation ID
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with an ID, reusing a client-supplied one,
// and stores it in the request context for log correlation
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// RateLimit rejects requests with 429 once the token bucket is exhausted.
// rps may be fractional.
func RateLimit(rps float64, burst int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metricsCollector.RateLimitedTotal.Inc()
				logger.Warn(r.Context(), "[API_RATE_LIMITED] Request rejected by rate limiter", logging.Fields{
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
				})
				w.Header().Set("Retry-After", "1")
				writeJSON(w, ErrorResponse{
					Error:   http.StatusText(http.StatusTooManyRequests),
					Message: "rate limit exceeded, retry later",
					Code:    http.StatusTooManyRequests,
				}, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
