// Package authz holds the ownership and role policy applied to task
// resources. Every function is pure: it only inspects the principal and
// the ownership tuple it is given.
package authz

import "github.com/rhuss/tasktrack/pkg/auth"

// Decision is the outcome of a policy check. EffectiveOwnerID is the owner
// the caller acts on behalf of.
type Decision struct {
	Allowed          bool
	EffectiveOwnerID int64
}

// Scope describes which owners a listing may include.
type Scope struct {
	// All is true when no owner filter applies.
	All bool

	// OwnerID is the single owner to list when All is false.
	OwnerID int64
}

// CanAccess reports whether p may read or modify a resource owned by
// ownerID. Admins may access everything; users only their own resources.
func CanAccess(p auth.Principal, ownerID int64) bool {
	return p.IsAdmin() || p.UserID == ownerID
}

// CheckAccess is CanAccess returning a Decision.
func CheckAccess(p auth.Principal, ownerID int64) Decision {
	return Decision{Allowed: CanAccess(p, ownerID), EffectiveOwnerID: ownerID}
}

// ResolveOwner returns the owner a new resource is created for. Admins may
// target any owner and default to themselves; a user's requested owner is
// ignored.
func ResolveOwner(p auth.Principal, requested *int64) int64 {
	if p.IsAdmin() && requested != nil {
		return *requested
	}
	return p.UserID
}

// CheckCreate is ResolveOwner returning a Decision. Creation is always
// allowed; only the effective owner varies.
func CheckCreate(p auth.Principal, requested *int64) Decision {
	return Decision{Allowed: true, EffectiveOwnerID: ResolveOwner(p, requested)}
}

// EffectiveFilter narrows a listing to what p may see. Admins without a
// requested owner see everything; everyone else sees a single owner.
func EffectiveFilter(p auth.Principal, requested *int64) Scope {
	if p.IsAdmin() {
		if requested == nil {
			return Scope{All: true}
		}
		return Scope{OwnerID: *requested}
	}
	return Scope{OwnerID: p.UserID}
}
