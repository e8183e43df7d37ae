// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the tasktrack API.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for short API calls,
// ranging from 5ms to 10s.
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktrack_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasktrack_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "route"},
	)

	// RequestsInFlight tracks the number of requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasktrack_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktrack_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"route"},
	)

	// RateLimitBuckets tracks the number of live rate limit buckets.
	RateLimitBuckets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasktrack_ratelimit_buckets",
			Help: "Live rate limit buckets",
		},
	)

	// AuthFailuresTotal counts authenticator No votes by internal reason.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktrack_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"reason"},
	)

	// LoginAttemptsTotal counts login attempts by outcome (success, invalid_credentials, error).
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktrack_login_attempts_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// TaskOperationsTotal counts task service operations by name and outcome.
	TaskOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasktrack_task_operations_total",
			Help: "Task operations",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		RateLimitRejectedTotal,
		RateLimitBuckets,
		AuthFailuresTotal,
		LoginAttemptsTotal,
		TaskOperationsTotal,
	)
}
