// Package transport provides the HTTP middleware chain and the JSON error
// body shared by every tasktrack endpoint.
//
// # Middleware
//
// Middleware are plain func(http.Handler) http.Handler values composed with
// Chain. Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured access logging via log/slog.
//
// # Errors
//
// All error responses use the ErrorBody shape:
//
//	{"timestamp":"...","status":404,"error":"Not Found","path":"/api/v1/tasks/7","message":"Task not found"}
//
// Validation failures additionally carry a per-field "fields" map.
package transport
