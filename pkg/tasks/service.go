package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/authz"
	"github.com/rhuss/tasktrack/pkg/debug"
	"github.com/rhuss/tasktrack/pkg/observability"
	"github.com/rhuss/tasktrack/pkg/storage"
	"github.com/rhuss/tasktrack/pkg/users"
	"github.com/rhuss/tasktrack/pkg/validation"
)

// Owners resolves the user a new task is assigned to.
type Owners interface {
	GetUser(ctx context.Context, id int64) (*users.User, error)
}

// ListQuery is the caller's listing request before policy narrowing.
type ListQuery struct {
	OwnerID   *int64
	Completed *bool
	Page      storage.PageRequest
}

// CreateInput is the body of a create request.
type CreateInput struct {
	Title  string `json:"title" validate:"notblank,max=255"`
	UserID *int64 `json:"userId,omitempty" validate:"omitempty,gt=0"`
}

// UpdateInput is the body of a partial update. Nil fields are left as is.
type UpdateInput struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Completed *bool   `json:"completed,omitempty"`
}

// Service applies the authorization policy and validation to task operations.
type Service struct {
	store     Store
	owners    Owners
	validator *validation.Validator
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(store Store, owners Owners, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		owners:    owners,
		validator: validation.New(),
		logger:    logger,
	}
}

// List returns the page of tasks visible to p.
func (s *Service) List(ctx context.Context, p auth.Principal, q ListQuery) (storage.Page[Task], error) {
	scope := authz.EffectiveFilter(p, q.OwnerID)

	f := Filter{Completed: q.Completed}
	if !scope.All {
		owner := scope.OwnerID
		f.OwnerID = &owner
	}

	page, err := s.store.ListTasks(ctx, f, q.Page.Normalize())
	if err != nil {
		return storage.Page[Task]{}, s.fail("list", fmt.Errorf("listing tasks: %w", err))
	}
	s.ok("list")
	return page, nil
}

// Get returns task id if p may access it.
func (s *Service) Get(ctx context.Context, p auth.Principal, id int64) (*Task, error) {
	t, err := s.load(ctx, p, id)
	if err != nil {
		return nil, s.fail("get", err)
	}
	s.ok("get")
	return t, nil
}

// Create validates in and stores a new, incomplete task for the owner the
// policy resolves.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*Task, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, s.fail("create", err)
	}

	decision := authz.CheckCreate(p, in.UserID)
	ownerID := decision.EffectiveOwnerID

	if _, err := s.owners.GetUser(ctx, ownerID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, s.fail("create", fmt.Errorf("%w: %d", ErrOwnerNotFound, ownerID))
		}
		return nil, s.fail("create", fmt.Errorf("looking up owner %d: %w", ownerID, err))
	}

	t := &Task{Title: in.Title, UserID: ownerID}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, s.fail("create", fmt.Errorf("creating task: %w", err))
	}

	debug.Log(ctx, s.logger, "tasks", "task created", "task_id", t.ID, "owner_id", ownerID, "subject", p.Subject)
	s.ok("create")
	return t, nil
}

// Update applies the non-nil fields of in to task id if p may access it.
func (s *Service) Update(ctx context.Context, p auth.Principal, id int64, in UpdateInput) (*Task, error) {
	t, err := s.load(ctx, p, id)
	if err != nil {
		return nil, s.fail("update", err)
	}

	if err := s.validator.Struct(in); err != nil {
		return nil, s.fail("update", err)
	}

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}

	if err := s.store.UpdateTask(ctx, t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, s.fail("update", ErrNotFound)
		}
		return nil, s.fail("update", fmt.Errorf("updating task %d: %w", id, err))
	}
	s.ok("update")
	return t, nil
}

// Delete removes task id if p may access it.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if _, err := s.load(ctx, p, id); err != nil {
		return s.fail("delete", err)
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.fail("delete", ErrNotFound)
		}
		return s.fail("delete", fmt.Errorf("deleting task %d: %w", id, err))
	}

	debug.Log(ctx, s.logger, "tasks", "task deleted", "task_id", id, "subject", p.Subject)
	s.ok("delete")
	return nil
}

// load fetches task id and applies the access check. Missing and
// forbidden tasks both yield ErrNotFound.
func (s *Service) load(ctx context.Context, p auth.Principal, id int64) (*Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading task %d: %w", id, err)
	}

	if !authz.CanAccess(p, t.UserID) {
		debug.Log(ctx, s.logger, "tasks", "task access denied", "task_id", id, "subject", p.Subject)
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *Service) ok(op string) {
	observability.TaskOperationsTotal.WithLabelValues(op, "ok").Inc()
}

// fail records the outcome of a failed operation and returns err.
func (s *Service) fail(op string, err error) error {
	var verr *validation.Error
	outcome := "error"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrOwnerNotFound), errors.As(err, &verr):
		outcome = "invalid"
	}
	observability.TaskOperationsTotal.WithLabelValues(op, outcome).Inc()
	return err
}
