package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a user or task does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness or
	// reference constraint, such as a duplicate email.
	ErrConflict = errors.New("conflict")
)
