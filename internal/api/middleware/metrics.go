package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtsk-dev/streamgate/internal/infrastructure/metrics"
)

// Metrics records request counts and latency per chi route pattern. Using
// the pattern instead of the raw path keeps label cardinality bounded even
// though media IDs and segment names vary per request.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, pattern, strconv.Itoa(wrapped.status),
		).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(
			r.Method, pattern,
		).Observe(time.Since(start).Seconds())
	})
}
