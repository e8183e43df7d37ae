// Package login exchanges email and password credentials for a session
// token.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/tasktrack/pkg/auth/jwt"
	"github.com/rhuss/tasktrack/pkg/observability"
	"github.com/rhuss/tasktrack/pkg/storage"
	"github.com/rhuss/tasktrack/pkg/users"
	"github.com/rhuss/tasktrack/pkg/validation"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Outcome labels for tasktrack_login_attempts_total.
const (
	outcomeSuccess  = "success"
	outcomeInvalid  = "invalid_credentials"
	outcomeRejected = "invalid_request"
	outcomeError    = "error"
)

const dummyPassword = "tasktrack-timing-equalizer"

// Request is the body of a login request.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response is the body of a successful login.
type Response struct {
	Token string `json:"token"`
}

// Service verifies credentials against the user store and issues tokens.
type Service struct {
	users     users.Store
	tokens    *jwt.Service
	validator *validation.Validator
	logger    *slog.Logger

	// dummyHash is compared against for unknown emails.
	dummyHash string
}

// NewService creates a login Service. The comparison hash for unknown
// emails is computed here, at the default bcrypt cost.
func NewService(store users.Store, tokens *jwt.Service, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := users.HashPassword(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("preparing timing hash: %w", err)
	}
	return &Service{
		users:     store,
		tokens:    tokens,
		validator: validation.New(),
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// Login validates req and returns a signed token for the matching user.
// Malformed requests yield *validation.Error, bad credentials yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req Request) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		s.record(outcomeRejected)
		return "", err
	}

	u, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		// Burn a comparison so unknown emails cost as much as wrong passwords.
		if _, err := users.CheckPassword(s.dummyHash, req.Password); err != nil {
			s.logger.Error("timing hash comparison failed", "error", err)
		}
		s.record(outcomeInvalid)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		s.record(outcomeError)
		return "", fmt.Errorf("looking up user: %w", err)
	}

	ok, err := users.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		s.logger.Error("stored password hash is unusable", "user_id", u.ID, "error", err)
		s.record(outcomeInvalid)
		return "", ErrInvalidCredentials
	}
	if !ok {
		s.record(outcomeInvalid)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.Principal(), u.Email)
	if err != nil {
		s.record(outcomeError)
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("login succeeded", "subject", u.Principal().Subject)
	s.record(outcomeSuccess)
	return token, nil
}

func (s *Service) record(outcome string) {
	observability.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}
