// Package apikey provides the static metrics-token authenticator. A scraper
// presenting the configured token as a bearer credential is granted an ADMIN
// principal, but only on the metrics route. The token is stored as a SHA-256
// hash and compared in constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/rhuss/tasktrack/pkg/auth"
)

// Subject identifies the metrics scraper in logs.
const Subject = "prometheus"

// Authenticator validates the static metrics token.
type Authenticator struct {
	path    string
	keyHash [32]byte
}

// New creates a metrics-token authenticator for GET requests to path.
// The token is hashed immediately; the plaintext is not stored.
// An empty token yields nil, which callers leave out of the chain.
func New(token, path string) *Authenticator {
	if token == "" {
		return nil
	}
	return &Authenticator{
		path:    path,
		keyHash: sha256.Sum256([]byte(token)),
	}
}

// Authenticate returns Yes with an ADMIN principal when the request is a
// GET to the metrics path carrying the static token. Every other case
// abstains, so a JWT on the same route is still evaluated by the next
// authenticator in the chain.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	if r.Method != http.MethodGet || r.URL.Path != a.path {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	token, ok := auth.BearerToken(r)
	if !ok || token == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	tokenHash := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(tokenHash[:], a.keyHash[:]) != 1 {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	return auth.AuthResult{
		Decision:  auth.Yes,
		Principal: &auth.Principal{Role: auth.RoleAdmin, Subject: Subject},
	}
}
