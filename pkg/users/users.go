// Package users defines the identity store: user records, password
// hashing, and the adapter the token authenticator uses to resolve the
// live role of a user.
package users

import (
	"context"
	"time"

	"github.com/rhuss/tasktrack/pkg/auth"
)

// User is a stored account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
}

// Principal returns the principal this user authenticates as.
func (u *User) Principal() auth.Principal {
	return auth.NewPrincipal(u.ID, u.Role)
}

// Store persists users. Lookups return storage.ErrNotFound for missing
// users; CreateUser returns storage.ErrConflict for a duplicate email.
type Store interface {
	// CreateUser inserts u and sets its ID and CreatedAt.
	CreateUser(ctx context.Context, u *User) error

	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CountUsers returns the number of stored users.
	CountUsers(ctx context.Context) (int64, error)
}
