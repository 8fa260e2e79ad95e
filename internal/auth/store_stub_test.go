package auth

import (
	"context"
	"time"
)

// stubStore wires func-field fakes into the Store aggregate.
type stubStore struct {
	users    *stubUserStore
	sessions *stubSessionStore
	roles    *stubRoleStore
	perms    *stubPermissionStore
}

func newStubStore() *stubStore {
	return &stubStore{
		users:    &stubUserStore{},
		sessions: &stubSessionStore{},
		roles:    &stubRoleStore{},
		perms:    &stubPermissionStore{},
	}
}

func (s *stubStore) Users() UserStore             { return s.users }
func (s *stubStore) Sessions() SessionStore       { return s.sessions }
func (s *stubStore) Roles() RoleStore             { return s.roles }
func (s *stubStore) Permissions() PermissionStore { return s.perms }

type stubUserStore struct {
	createFn         func(context.Context, *User) error
	findFn           func(context.Context, string) (*User, error)
	findByEmailFn    func(context.Context, string) (*User, error)
	findByUsernameFn func(context.Context, string) (*User, error)
	findAnyFn        func(context.Context, string) (*User, error)
	updateFn         func(context.Context, *User) error
	updatePasswordFn func(context.Context, string, string) error
	setLastLoginFn   func(context.Context, string, time.Time) error
	softDeleteFn     func(context.Context, string, time.Time) error
	restoreFn        func(context.Context, string) error
	hardDeleteFn     func(context.Context, string) error
	listFn           func(context.Context, ListUsersFilter) ([]*User, int, error)
}

func (s *stubUserStore) Create(ctx context.Context, u *User) error {
	if s.createFn != nil {
		return s.createFn(ctx, u)
	}
	return nil
}

func (s *stubUserStore) Find(ctx context.Context, id string) (*User, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	if s.findByEmailFn != nil {
		return s.findByEmailFn(ctx, email)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	if s.findByUsernameFn != nil {
		return s.findByUsernameFn(ctx, username)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) FindAny(ctx context.Context, id string) (*User, error) {
	if s.findAnyFn != nil {
		return s.findAnyFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) Update(ctx context.Context, u *User) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, u)
	}
	return nil
}

func (s *stubUserStore) UpdatePassword(ctx context.Context, userID, hash string) error {
	if s.updatePasswordFn != nil {
		return s.updatePasswordFn(ctx, userID, hash)
	}
	return nil
}

func (s *stubUserStore) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	if s.setLastLoginFn != nil {
		return s.setLastLoginFn(ctx, userID, at)
	}
	return nil
}

func (s *stubUserStore) SoftDelete(ctx context.Context, userID string, at time.Time) error {
	if s.softDeleteFn != nil {
		return s.softDeleteFn(ctx, userID, at)
	}
	return nil
}

func (s *stubUserStore) Restore(ctx context.Context, userID string) error {
	if s.restoreFn != nil {
		return s.restoreFn(ctx, userID)
	}
	return nil
}

func (s *stubUserStore) HardDelete(ctx context.Context, userID string) error {
	if s.hardDeleteFn != nil {
		return s.hardDeleteFn(ctx, userID)
	}
	return nil
}

func (s *stubUserStore) List(ctx context.Context, filter ListUsersFilter) ([]*User, int, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

type stubSessionStore struct {
	createFn            func(context.Context, *Session) error
	findFn              func(context.Context, string) (*Session, error)
	findActiveFn        func(context.Context, string, time.Time) (*Session, error)
	rotateAccessHashFn  func(context.Context, string, string, time.Time) error
	revokeFn            func(context.Context, string, string, time.Time) (bool, error)
	revokeAllForUserFn  func(context.Context, string, string, time.Time) (int, error)
	listActiveForUserFn func(context.Context, string, time.Time) ([]*Session, error)
	deleteExpiredFn     func(context.Context, time.Time) (int, error)
}

func (s *stubSessionStore) Create(ctx context.Context, sess *Session) error {
	if s.createFn != nil {
		return s.createFn(ctx, sess)
	}
	return nil
}

func (s *stubSessionStore) Find(ctx context.Context, id string) (*Session, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubSessionStore) FindActive(ctx context.Context, id string, now time.Time) (*Session, error) {
	if s.findActiveFn != nil {
		return s.findActiveFn(ctx, id, now)
	}
	return nil, ErrNotFound
}

func (s *stubSessionStore) RotateAccessHash(ctx context.Context, sessionID, accessHash string, at time.Time) error {
	if s.rotateAccessHashFn != nil {
		return s.rotateAccessHashFn(ctx, sessionID, accessHash, at)
	}
	return nil
}

func (s *stubSessionStore) Revoke(ctx context.Context, sessionID, revokedBy string, at time.Time) (bool, error) {
	if s.revokeFn != nil {
		return s.revokeFn(ctx, sessionID, revokedBy, at)
	}
	return false, nil
}

func (s *stubSessionStore) RevokeAllForUser(ctx context.Context, userID, revokedBy string, at time.Time) (int, error) {
	if s.revokeAllForUserFn != nil {
		return s.revokeAllForUserFn(ctx, userID, revokedBy, at)
	}
	return 0, nil
}

func (s *stubSessionStore) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]*Session, error) {
	if s.listActiveForUserFn != nil {
		return s.listActiveForUserFn(ctx, userID, now)
	}
	return nil, nil
}

func (s *stubSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if s.deleteExpiredFn != nil {
		return s.deleteExpiredFn(ctx, before)
	}
	return 0, nil
}

type stubRoleStore struct {
	createFn             func(context.Context, *Role) error
	findFn               func(context.Context, string) (*Role, error)
	findByNameFn         func(context.Context, string) (*Role, error)
	listFn               func(context.Context) ([]*Role, error)
	updateFn             func(context.Context, *Role) error
	deleteFn             func(context.Context, string) error
	assignFn             func(context.Context, RoleAssignment) error
	removeAssignmentFn   func(context.Context, string, string) error
	assignmentsForUserFn func(context.Context, string) ([]RoleAssignment, error)
}

func (s *stubRoleStore) Create(ctx context.Context, r *Role) error {
	if s.createFn != nil {
		return s.createFn(ctx, r)
	}
	return nil
}

func (s *stubRoleStore) Find(ctx context.Context, id string) (*Role, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubRoleStore) FindByName(ctx context.Context, name string) (*Role, error) {
	if s.findByNameFn != nil {
		return s.findByNameFn(ctx, name)
	}
	return nil, ErrNotFound
}

func (s *stubRoleStore) List(ctx context.Context) ([]*Role, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubRoleStore) Update(ctx context.Context, r *Role) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, r)
	}
	return nil
}

func (s *stubRoleStore) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubRoleStore) Assign(ctx context.Context, a RoleAssignment) error {
	if s.assignFn != nil {
		return s.assignFn(ctx, a)
	}
	return nil
}

func (s *stubRoleStore) RemoveAssignment(ctx context.Context, userID, roleID string) error {
	if s.removeAssignmentFn != nil {
		return s.removeAssignmentFn(ctx, userID, roleID)
	}
	return nil
}

func (s *stubRoleStore) AssignmentsForUser(ctx context.Context, userID string) ([]RoleAssignment, error) {
	if s.assignmentsForUserFn != nil {
		return s.assignmentsForUserFn(ctx, userID)
	}
	return nil, nil
}

type stubPermissionStore struct {
	ensureFn     func(context.Context, []Permission) error
	listFn       func(context.Context) ([]Permission, error)
	setForRoleFn func(context.Context, string, []string, string) error
	forRoleFn    func(context.Context, string) ([]Permission, error)
}

func (s *stubPermissionStore) Ensure(ctx context.Context, perms []Permission) error {
	if s.ensureFn != nil {
		return s.ensureFn(ctx, perms)
	}
	return nil
}

func (s *stubPermissionStore) List(ctx context.Context) ([]Permission, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubPermissionStore) SetForRole(ctx context.Context, roleID string, permissionIDs []string, grantedBy string) error {
	if s.setForRoleFn != nil {
		return s.setForRoleFn(ctx, roleID, permissionIDs, grantedBy)
	}
	return nil
}

func (s *stubPermissionStore) ForRole(ctx context.Context, roleID string) ([]Permission, error) {
	if s.forRoleFn != nil {
		return s.forRoleFn(ctx, roleID)
	}
	return nil, nil
}
