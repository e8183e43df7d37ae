// Package tasks implements the task resource: the stored record, the store
// contract, and the service that applies the authorization policy to every
// operation.
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/rhuss/tasktrack/pkg/storage"
)

// Task is a stored to-do item owned by one user.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filter narrows a listing. Nil fields do not filter.
type Filter struct {
	OwnerID   *int64
	Completed *bool
}

// Store persists tasks. Missing tasks yield storage.ErrNotFound.
// ListTasks orders by CreatedAt descending, newest first.
type Store interface {
	// CreateTask inserts t and sets its ID and CreatedAt.
	CreateTask(ctx context.Context, t *Task) error

	GetTask(ctx context.Context, id int64) (*Task, error)

	// UpdateTask overwrites the title and completed flag of t.ID.
	UpdateTask(ctx context.Context, t *Task) error

	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context, f Filter, page storage.PageRequest) (storage.Page[Task], error)
}

// Service errors.
var (
	// ErrNotFound is returned for missing tasks and for tasks the caller
	// may not access; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("task not found")

	// ErrOwnerNotFound is returned when a task targets a user that does not exist.
	ErrOwnerNotFound = errors.New("user not found")
)
