package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/tasks"
	"github.com/rhuss/tasktrack/pkg/users"
)

type seedUser struct {
	email    string
	password string
	role     auth.Role
	tasks    []tasks.Task
}

var demoData = []seedUser{
	{
		email: "admin@demo.com", password: "admin123", role: auth.RoleAdmin,
		tasks: []tasks.Task{
			{Title: "Review API endpoints"},
			{Title: "Add integration tests"},
		},
	},
	{
		email: "user@demo.com", password: "user123", role: auth.RoleUser,
		tasks: []tasks.Task{
			{Title: "Check Swagger UI", Completed: true},
			{Title: "Create first task"},
		},
	},
}

// seed populates an empty user store with demo accounts and tasks. A store
// that already has users is left alone.
func seed(ctx context.Context, us users.Store, ts tasks.Store, logger *slog.Logger) error {
	n, err := us.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Debug("store not empty, skipping seed", "users", n)
		return nil
	}

	for _, su := range demoData {
		hash, err := users.HashPassword(su.password)
		if err != nil {
			return err
		}
		u := &users.User{Email: su.email, PasswordHash: hash, Role: su.role}
		if err := us.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("creating %s: %w", su.email, err)
		}

		for _, t := range su.tasks {
			t.UserID = u.ID
			if err := ts.CreateTask(ctx, &t); err != nil {
				return fmt.Errorf("creating task %q: %w", t.Title, err)
			}
		}
	}

	logger.Warn("seeded demo users with well-known passwords; do not enable seeding in production",
		"users", len(demoData))
	return nil
}
