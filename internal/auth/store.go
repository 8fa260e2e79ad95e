package auth

import (
	"context"
	"time"
)

// Store describes the persistence operations the identity core needs. The
// backing implementation lives in internal/store/pg; tests provide func-field
// stubs.
type Store interface {
	Users() UserStore
	Sessions() SessionStore
	Roles() RoleStore
	Permissions() PermissionStore
}

// ListUsersFilter narrows List results.
type ListUsersFilter struct {
	Search         string
	Status         Status
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// UserStore manages user rows. Lookups exclude soft-deleted users unless the
// method says otherwise.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindAny also returns soft-deleted users.
	FindAny(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetLastLogin(ctx context.Context, userID string, at time.Time) error
	SoftDelete(ctx context.Context, userID string, at time.Time) error
	Restore(ctx context.Context, userID string) error
	// HardDelete removes the row; sessions cascade in the backing store.
	HardDelete(ctx context.Context, userID string) error
	List(ctx context.Context, filter ListUsersFilter) ([]*User, int, error)
}

// SessionStore manages session rows. The fingerprint uniqueness constraints
// are enforced by the backing database, not here.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Find(ctx context.Context, id string) (*Session, error)
	// FindActive returns the session only if it is not revoked and not
	// expired at the given instant. The per-request liveness check goes
	// through here, which is what makes revocation authoritative even for
	// access tokens that still verify cryptographically.
	FindActive(ctx context.Context, id string, now time.Time) (*Session, error)
	// RotateAccessHash replaces the access-token fingerprint and bumps
	// last_activity. Concurrent rotations race last-write-wins; safety comes
	// from the caller re-validating the presented refresh token against the
	// currently stored fingerprint first.
	RotateAccessHash(ctx context.Context, sessionID, accessHash string, at time.Time) error
	// Revoke marks the session revoked. Idempotent: revoking an already
	// revoked session reports false with no error.
	Revoke(ctx context.Context, sessionID, revokedBy string, at time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, userID, revokedBy string, at time.Time) (int, error)
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]*Session, error)
	// DeleteExpired removes sessions dead since before the cutoff. Invoked
	// by an external scheduler; there is no in-process cron.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// RoleStore manages roles and user-role assignments.
type RoleStore interface {
	Create(ctx context.Context, r *Role) error
	Find(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Update(ctx context.Context, r *Role) error
	Delete(ctx context.Context, id string) error
	// Assign inserts or updates the assignment (upsert on expires_at).
	Assign(ctx context.Context, a RoleAssignment) error
	RemoveAssignment(ctx context.Context, userID, roleID string) error
	// AssignmentsForUser returns every assignment row, expired ones
	// included; expiry filtering is the resolver's job.
	AssignmentsForUser(ctx context.Context, userID string) ([]RoleAssignment, error)
}

// PermissionStore manages the permission catalog and role grants.
type PermissionStore interface {
	Ensure(ctx context.Context, perms []Permission) error
	List(ctx context.Context) ([]Permission, error)
	SetForRole(ctx context.Context, roleID string, permissionIDs []string, grantedBy string) error
	ForRole(ctx context.Context, roleID string) ([]Permission, error)
}
