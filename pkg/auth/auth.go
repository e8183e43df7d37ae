package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the principal is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request continues unauthenticated.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// String returns the lower-case name of the decision.
func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// AuthResult carries the outcome of an authentication attempt.
type AuthResult struct {
	Decision  AuthDecision
	Principal *Principal // populated only when Decision == Yes
	Err       error      // populated only when Decision == No

	// Reason classifies a No decision for logs and metrics.
	Reason FailureReason
}

// FailureReason classifies why an authenticator voted No. The reasons are
// never exposed to clients; they all collapse to "unauthenticated".
type FailureReason string

const (
	ReasonMalformed          FailureReason = "malformed"
	ReasonInvalidSignature   FailureReason = "invalid_signature"
	ReasonExpired            FailureReason = "expired"
	ReasonUnknownIdentity    FailureReason = "unknown_identity"
	ReasonLookupFailed       FailureReason = "lookup_failed"
	ReasonInvalidCredentials FailureReason = "invalid_credentials"
)

// Role is the authorization role of a principal.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a stored or claimed role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated caller attached to a request. It is
// produced only by successful authentication and never mutated afterwards.
type Principal struct {
	// UserID is the identity store key of the caller.
	UserID int64

	// Role is the role resolved at authentication time.
	Role Role

	// Subject identifies the caller in logs.
	Subject string
}

// NewPrincipal creates a principal for a stored user.
func NewPrincipal(userID int64, role Role) Principal {
	return Principal{
		UserID:  userID,
		Role:    role,
		Subject: "user:" + strconv.FormatInt(userID, 10),
	}
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// IdentityStore resolves the live identity behind an authenticated user id.
type IdentityStore interface {
	// FindPrincipal returns the principal for userID with its current role.
	// It returns ErrUnknownIdentity when the user no longer exists.
	FindPrincipal(ctx context.Context, userID int64) (Principal, error)
}

// Sentinel errors.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrUnknownIdentity = errors.New("unknown identity")
)

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator
}

// Authenticate runs the chain. Stops on the first Yes or No.
// If all abstain, the result is Abstain.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}
	return AuthResult{Decision: Abstain}
}
