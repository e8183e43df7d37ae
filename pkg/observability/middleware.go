package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rhuss/tasktrack/pkg/transport"
)

// unmatchedRoute labels requests that no route pattern matched.
const unmatchedRoute = "unmatched"

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - tasktrack_requests_total (counter): incremented per request with method, status class, and route labels
//   - tasktrack_request_duration_seconds (histogram): request duration with method and route labels
//   - tasktrack_requests_in_flight (gauge): incremented while a request is being served
//
// The route label is the ServeMux pattern, so the middleware must wrap the
// mux directly for the pattern to be visible after the handler returns.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		rec := transport.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}

		// Build a status class label like "2xx", "4xx", "5xx".
		statusStr := strconv.Itoa(rec.Status()/100) + "xx"

		RequestsTotal.WithLabelValues(r.Method, statusStr, route).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
