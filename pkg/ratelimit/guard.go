package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/rhuss/tasktrack/pkg/debug"
	"github.com/rhuss/tasktrack/pkg/observability"
	"github.com/rhuss/tasktrack/pkg/transport"
)

// Response headers.
const (
	HeaderLimit      = "X-Rate-Limit-Limit"
	HeaderRemaining  = "X-Rate-Limit-Remaining"
	HeaderRetryAfter = "Retry-After"
)

// RejectedMessage is the error text of a throttled login.
const RejectedMessage = "Too many login attempts. Please try again later."

// LoginGuard returns middleware that throttles POST requests to path per
// client IP. Allowed requests carry the limit headers and continue;
// rejected requests get 429 and never reach the rest of the chain.
// Every other request passes through untouched.
func LoginGuard(l *Limiter, path string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != path {
				next.ServeHTTP(w, r)
				return
			}

			key := ClientKey(r)
			d := l.Allow(key)

			h := w.Header()
			h.Set(HeaderLimit, strconv.Itoa(d.Limit))

			if d.Allowed {
				h.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
				debug.Log(r.Context(), logger, "ratelimit", "login attempt admitted",
					"client", key,
					"remaining", d.Remaining,
				)
				next.ServeHTTP(w, r)
				return
			}

			h.Set(HeaderRemaining, "0")
			h.Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfterSeconds()))
			observability.RateLimitRejectedTotal.WithLabelValues(path).Inc()
			logger.Warn("login rate limit exceeded",
				"client", key,
				"retry_after", d.RetryAfterSeconds(),
				"request_id", transport.RequestIDFromContext(r.Context()),
			)

			transport.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"error": RejectedMessage})
		})
	}
}

// ClientKey returns the host part of the request's remote address, or the
// address verbatim when it has no port. Forwarding headers are ignored.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
