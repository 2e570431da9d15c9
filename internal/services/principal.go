package services

import "github.com/google/uuid"

// RoleAdmin is the administrator-equivalent role; it may mutate any tour.
const RoleAdmin = "admin"

// Principal identifies the authenticated caller of an operation.
// A zero Principal represents an anonymous caller.
type Principal struct {
	ID   uuid.UUID
	Role string
}

// IsAnonymous reports whether no caller identity is present.
func (p Principal) IsAnonymous() bool {
	return p.ID == uuid.Nil
}

// IsAdmin reports whether the caller is administrator-equivalent.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanMutate reports whether the caller may mutate a resource owned by
// ownerID: the owner or an administrator.
func (p Principal) CanMutate(ownerID uuid.UUID) bool {
	return p.IsAdmin() || (!p.IsAnonymous() && p.ID == ownerID)
}
