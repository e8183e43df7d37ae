// Package auth provides pluggable authentication for tasktrack.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (principal found), No (credentials
// invalid), or Abstain (can't handle). When every authenticator abstains
// the request stays unauthenticated.
//
// Auth is implemented as fail-open HTTP middleware that only attaches an
// immutable Principal to the request context. Rejection happens later in
// RequireAuthenticated and RequireRole (401/403) or in the authorization
// policy applied by the task service (404).
package auth
