package auth

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/tasktrack/pkg/debug"
	"github.com/rhuss/tasktrack/pkg/observability"
	"github.com/rhuss/tasktrack/pkg/transport"
)

// Middleware creates fail-open HTTP middleware from an AuthChain. It never
// rejects a request: a Yes vote attaches the principal to the context, any
// other outcome lets the request continue unauthenticated. Enforcement is
// left to RequireAuthenticated, RequireRole, and the authorization policy.
//
// A request that already carries a principal is passed through untouched,
// so the middleware runs at most once per request.
func Middleware(chain *AuthChain, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)

			switch result.Decision {
			case Yes:
				if result.Principal == nil || !result.Principal.Role.Valid() {
					logger.Error("authenticator returned yes without a valid principal",
						"path", r.URL.Path,
					)
					next.ServeHTTP(w, r)
					return
				}

				debug.Log(r.Context(), logger, "auth", "authentication succeeded",
					"subject", result.Principal.Subject,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)

				ctx := SetPrincipal(r.Context(), *result.Principal)
				next.ServeHTTP(w, r.WithContext(ctx))
				return

			case No:
				reason := result.Reason
				if reason == "" {
					reason = ReasonMalformed
				}
				observability.AuthFailuresTotal.WithLabelValues(string(reason)).Inc()

				level := slog.LevelDebug
				if reason == ReasonLookupFailed {
					level = slog.LevelWarn
				}
				logger.Log(r.Context(), level, "authentication failed",
					"reason", string(reason),
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated rejects requests without a principal with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			transport.WriteError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects unauthenticated requests with 401 and principals
// lacking the role with 403.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				transport.WriteError(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			if p.Role != role {
				transport.WriteError(w, r, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
