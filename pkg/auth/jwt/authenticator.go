package jwt

import (
	"context"
	"errors"
	"net/http"

	"github.com/rhuss/tasktrack/pkg/auth"
)

// Authenticator validates session tokens from the Authorization header and
// resolves the live principal from the identity store.
type Authenticator struct {
	tokens     *Service
	identities auth.IdentityStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens *Service, identities auth.IdentityStore) *Authenticator {
	return &Authenticator{tokens: tokens, identities: identities}
}

// Authenticate extracts a bearer token, verifies it, and looks up the user.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: token malformed, badly signed, or expired; user gone; lookup failed
//   - Yes: valid token for an existing user, carrying the user's current role
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	raw, ok := auth.BearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if raw == "" {
		return auth.AuthResult{
			Decision: auth.No,
			Err:      ErrMalformed,
			Reason:   auth.ReasonMalformed,
		}
	}

	claimed, err := a.tokens.Verify(raw)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err, Reason: Reason(err)}
	}

	principal, err := a.identities.FindPrincipal(ctx, claimed.UserID)
	if err != nil {
		reason := auth.ReasonLookupFailed
		if errors.Is(err, auth.ErrUnknownIdentity) {
			reason = auth.ReasonUnknownIdentity
		}
		return auth.AuthResult{Decision: auth.No, Err: err, Reason: reason}
	}

	return auth.AuthResult{Decision: auth.Yes, Principal: &principal}
}
