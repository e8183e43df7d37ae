package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/tasktrack/pkg/auth"
	"github.com/rhuss/tasktrack/pkg/storage"
)

// Identities adapts a Store to auth.IdentityStore.
type Identities struct {
	store Store
}

var _ auth.IdentityStore = (*Identities)(nil)

// NewIdentities creates an Identities adapter.
func NewIdentities(store Store) *Identities {
	return &Identities{store: store}
}

// FindPrincipal returns the principal for userID with its stored role.
func (i *Identities) FindPrincipal(ctx context.Context, userID int64) (auth.Principal, error) {
	u, err := i.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return auth.Principal{}, fmt.Errorf("user %d: %w", userID, auth.ErrUnknownIdentity)
	}
	if err != nil {
		return auth.Principal{}, fmt.Errorf("looking up user %d: %w", userID, err)
	}
	return u.Principal(), nil
}
