package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/auth/login"
	"github.com/rhuss/tasktrack/pkg/observability"
	"github.com/rhuss/tasktrack/pkg/storage"
	"github.com/rhuss/tasktrack/pkg/tasks"
	"github.com/rhuss/tasktrack/pkg/transport"
	"github.com/rhuss/tasktrack/pkg/validation"
)

// tasksPath is the collection route. Item routes append "/{id}".
const tasksPath = "/api/v1/tasks"

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services are the domain services the adapter routes to.
type Services struct {
	Tasks *tasks.Service
	Login *login.Service

	// Health is optional; when nil /healthz always reports ok.
	Health HealthChecker
}

// Adapter serves the tasktrack API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	svc         Services
	mux         *http.ServeMux
	middlewares []transport.Middleware
	config      Config
	logger      *slog.Logger
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	LoginPath   string

	// MetricsPath mounts the Prometheus handler behind RequireRole(ADMIN).
	// Empty disables the route.
	MetricsPath string

	Logger *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
		LoginPath:   "/api/v1/auth/login",
		MetricsPath: "/metrics",
		Logger:      slog.Default(),
	}
}

// NewAdapter creates an HTTP adapter for svc. Middleware wraps the routed
// handler in the given order, outermost first.
func NewAdapter(svc Services, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := &Adapter{
		svc:         svc,
		mux:         http.NewServeMux(),
		middlewares: middlewares,
		config:      cfg,
		logger:      cfg.Logger,
	}

	a.mux.HandleFunc("POST "+cfg.LoginPath, a.handleLogin)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)

	a.mux.Handle("GET "+tasksPath, auth.RequireAuthenticated(http.HandlerFunc(a.handleListTasks)))
	a.mux.Handle("POST "+tasksPath, auth.RequireAuthenticated(http.HandlerFunc(a.handleCreateTask)))
	a.mux.Handle("GET "+tasksPath+"/{id}", auth.RequireAuthenticated(http.HandlerFunc(a.handleGetTask)))
	a.mux.Handle("PATCH "+tasksPath+"/{id}", auth.RequireAuthenticated(http.HandlerFunc(a.handleUpdateTask)))
	a.mux.Handle("DELETE "+tasksPath+"/{id}", auth.RequireAuthenticated(http.HandlerFunc(a.handleDeleteTask)))

	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, auth.RequireRole(auth.RoleAdmin)(observability.Handler()))
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. Metrics wrap the mux directly
// so the matched route pattern is visible to them.
func (a *Adapter) Handler() http.Handler {
	return transport.Chain(a.middlewares...)(observability.MetricsMiddleware(a.mux))
}

// handleLogin handles POST {login path}.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req login.Request
	if !a.decode(w, r, &req) {
		return
	}

	token, err := a.svc.Login.Login(r.Context(), req)
	switch {
	case err == nil:
		transport.WriteJSON(w, http.StatusOK, login.Response{Token: token})
	case errors.Is(err, login.ErrInvalidCredentials):
		transport.WriteError(w, r, http.StatusBadRequest, "Invalid credentials")
	default:
		a.writeServiceError(w, r, err)
	}
}

// handleHealth handles GET /healthz.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.svc.Health != nil {
		if err := a.svc.Health.HealthCheck(r.Context()); err != nil {
			a.logger.Warn("health check failed", "error", err)
			transport.WriteError(w, r, http.StatusServiceUnavailable, "Storage unavailable")
			return
		}
	}
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTasks handles GET /api/v1/tasks.
func (a *Adapter) handleListTasks(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	q, verr := parseListQuery(r)
	if verr != nil {
		transport.WriteFieldErrors(w, r, http.StatusBadRequest, "Invalid query parameters", verr.Fields)
		return
	}

	page, err := a.svc.Tasks.List(r.Context(), p, q)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, page)
}

// handleGetTask handles GET /api/v1/tasks/{id}.
func (a *Adapter) handleGetTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := a.svc.Tasks.Get(r.Context(), p, id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, t)
}

// handleCreateTask handles POST /api/v1/tasks.
func (a *Adapter) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())

	var in tasks.CreateInput
	if !a.decode(w, r, &in) {
		return
	}

	t, err := a.svc.Tasks.Create(r.Context(), p, in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", tasksPath+"/"+strconv.FormatInt(t.ID, 10))
	transport.WriteJSON(w, http.StatusCreated, t)
}

// handleUpdateTask handles PATCH /api/v1/tasks/{id}.
func (a *Adapter) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var in tasks.UpdateInput
	if !a.decode(w, r, &in) {
		return
	}

	t, err := a.svc.Tasks.Update(r.Context(), p, id, in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, t)
}

// handleDeleteTask handles DELETE /api/v1/tasks/{id}.
func (a *Adapter) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := a.svc.Tasks.Delete(r.Context(), p, id); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a size-limited JSON body into v. On failure it writes the
// error response and returns false.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			transport.WriteError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body too large (max %d bytes)", a.config.MaxBodySize))
		case errors.Is(err, io.EOF):
			transport.WriteError(w, r, http.StatusBadRequest, "Request body is required")
		default:
			transport.WriteError(w, r, http.StatusBadRequest, "Malformed JSON request body")
		}
		return false
	}
	return true
}

// writeServiceError maps a service error onto the error taxonomy.
func (a *Adapter) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		transport.WriteFieldErrors(w, r, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, tasks.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		transport.WriteError(w, r, http.StatusNotFound, "Task not found")
	case errors.Is(err, tasks.ErrOwnerNotFound):
		transport.WriteError(w, r, http.StatusBadRequest,
			"User not found"+strings.TrimPrefix(err.Error(), tasks.ErrOwnerNotFound.Error()))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		a.logger.Debug("request canceled", "path", r.URL.Path)
	default:
		a.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", transport.RequestIDFromContext(r.Context()),
			"error", err,
		)
		transport.WriteError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// taskID parses the {id} path value. A malformed id writes 400.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		transport.WriteError(w, r, http.StatusBadRequest, "Invalid task id")
		return 0, false
	}
	return id, true
}

// parseListQuery extracts filters and pagination from the query string.
func parseListQuery(r *http.Request) (tasks.ListQuery, *validation.Error) {
	values := r.URL.Query()
	fields := make(map[string]string)
	var q tasks.ListQuery

	if v := values.Get("userId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			fields["userId"] = "must be a positive integer"
		} else {
			q.OwnerID = &id
		}
	}
	if v := values.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields["completed"] = "must be true or false"
		} else {
			q.Completed = &b
		}
	}
	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields["page"] = "must be a non-negative integer"
		} else {
			q.Page.Page = n
		}
	}
	if v := values.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > storage.MaxPageSize {
			fields["size"] = fmt.Sprintf("must be between 1 and %d", storage.MaxPageSize)
		} else {
			q.Page.Size = n
		}
	}

	if len(fields) > 0 {
		return q, &validation.Error{Fields: fields}
	}
	return q, nil
}
