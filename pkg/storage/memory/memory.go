// Package memory provides an in-memory implementation of users.Store and
// tasks.Store for tests and single-process deployments. Data is lost when
// the process restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rhuss/tasktrack/pkg/storage"
	"github.com/rhuss/tasktrack/pkg/tasks"
	"github.com/rhuss/tasktrack/pkg/users"
)

// Store keeps users and tasks in maps guarded by one RWMutex. Returned
// records are copies; callers may modify them freely.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]*users.User
	byEmail    map[string]int64
	tasks      map[int64]*tasks.Task
	nextUserID int64
	nextTaskID int64
	now        func() time.Time
}

// Ensure Store implements both store contracts at compile time.
var (
	_ users.Store = (*Store)(nil)
	_ tasks.Store = (*Store)(nil)
)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[int64]*users.User),
		byEmail: make(map[string]int64),
		tasks:   make(map[int64]*tasks.Task),
		now:     time.Now,
	}
}

// CreateUser stores u. Emails are unique.
func (s *Store) CreateUser(_ context.Context, u *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.Email]; exists {
		return storage.ErrConflict
	}

	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now().UTC()

	stored := *u
	s.users[u.ID] = &stored
	s.byEmail[u.Email] = u.ID
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(_ context.Context, id int64) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *u
	return &out, nil
}

// GetUserByEmail returns the user with the given email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// CountUsers returns the number of stored users.
func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// CreateTask stores t. The owner must exist.
func (s *Store) CreateTask(_ context.Context, t *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[t.UserID]; !ok {
		return storage.ErrConflict
	}

	s.nextTaskID++
	t.ID = s.nextTaskID
	t.CreatedAt = s.now().UTC()

	stored := *t
	s.tasks[t.ID] = &stored
	return nil
}

// GetTask returns the task with the given ID.
func (s *Store) GetTask(_ context.Context, id int64) (*tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *t
	return &out, nil
}

// UpdateTask overwrites the mutable fields of the stored task.
func (s *Store) UpdateTask(_ context.Context, t *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tasks[t.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.Title = t.Title
	stored.Completed = t.Completed
	return nil
}

// DeleteTask removes the task with the given ID.
func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// ListTasks returns one page of matching tasks, newest first. Ties on
// CreatedAt are broken by descending ID.
func (s *Store) ListTasks(_ context.Context, f tasks.Filter, page storage.PageRequest) (storage.Page[tasks.Task], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []tasks.Task
	for _, t := range s.tasks {
		if f.OwnerID != nil && t.UserID != *f.OwnerID {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		matches = append(matches, *t)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})

	page = page.Normalize()
	total := int64(len(matches))
	start := page.Offset()
	if start > len(matches) {
		start = len(matches)
	}
	end := start + page.Size
	if end > len(matches) {
		end = len(matches)
	}

	return storage.NewPage(matches[start:end], page, total), nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
