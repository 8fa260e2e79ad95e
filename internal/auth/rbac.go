package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"identra.org/internal/ids"
)

// RBACService provides role and permission administration. Authorization of
// the administrator performing these calls happens at the transport layer
// via Service.Require.
type RBACService struct {
	store Store
	now   func() time.Time
}

// NewRBACService constructs the role administration service.
func NewRBACService(store Store, opts ...func(*RBACService)) (*RBACService, error) {
	if store == nil {
		return nil, errors.New("auth: rbac store is required")
	}
	s := &RBACService{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithRBACClock overrides the time source (useful for tests).
func WithRBACClock(fn func() time.Time) func(*RBACService) {
	return func(s *RBACService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// EnsureBuiltins seeds the permission catalog.
func (s *RBACService) EnsureBuiltins(ctx context.Context) error {
	return s.store.Permissions().Ensure(ctx, BuiltinPermissions)
}

// RoleInput carries role creation data.
type RoleInput struct {
	Name         string
	Description  string
	Priority     int
	ParentRoleID string
}

// CreateRole creates a role. The parent link is recorded as informational
// hierarchy only and never propagates permissions.
func (s *RBACService) CreateRole(ctx context.Context, in RoleInput) (*Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if in.ParentRoleID != "" {
		if _, err := s.store.Roles().Find(ctx, in.ParentRoleID); err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	role := &Role{
		ID:           ids.New(),
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Priority:     in.Priority,
		ParentRoleID: in.ParentRoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// RoleUpdate mutates role fields; nil pointers leave fields untouched.
type RoleUpdate struct {
	Name         *string
	Description  *string
	Priority     *int
	ParentRoleID *string
}

// UpdateRole applies a partial update.
func (s *RBACService) UpdateRole(ctx context.Context, roleID string, upd RoleUpdate) (*Role, error) {
	role, err := s.store.Roles().Find(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		role.Name = name
	}
	if upd.Description != nil {
		role.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Priority != nil {
		role.Priority = *upd.Priority
	}
	if upd.ParentRoleID != nil {
		parent := strings.TrimSpace(*upd.ParentRoleID)
		if parent != "" {
			if parent == roleID {
				return nil, fmt.Errorf("%w: role cannot be its own parent", ErrInvalidInput)
			}
			if _, err := s.store.Roles().Find(ctx, parent); err != nil {
				return nil, err
			}
		}
		role.ParentRoleID = parent
	}
	role.UpdatedAt = s.now().UTC()
	if err := s.store.Roles().Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole removes a role. System roles are protected.
func (s *RBACService) DeleteRole(ctx context.Context, roleID string) error {
	role, err := s.store.Roles().Find(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: system roles cannot be deleted", ErrBadRequest)
	}
	return s.store.Roles().Delete(ctx, roleID)
}

// GetRole returns one role.
func (s *RBACService) GetRole(ctx context.Context, roleID string) (*Role, error) {
	return s.store.Roles().Find(ctx, roleID)
}

// ListRoles returns every role.
func (s *RBACService) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.store.Roles().List(ctx)
}

// ListPermissions returns the permission catalog.
func (s *RBACService) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.Permissions().List(ctx)
}

// RolePermissions returns the permissions granted directly to a role.
func (s *RBACService) RolePermissions(ctx context.Context, roleID string) ([]Permission, error) {
	if _, err := s.store.Roles().Find(ctx, roleID); err != nil {
		return nil, err
	}
	return s.store.Permissions().ForRole(ctx, roleID)
}

// SetRolePermissions replaces a role's grants with the given permission ids.
func (s *RBACService) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string, grantedBy string) error {
	if _, err := s.store.Roles().Find(ctx, roleID); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(permissionIDs))
	deduped := make([]string, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return s.store.Permissions().SetForRole(ctx, roleID, deduped, grantedBy)
}

// AssignRole grants a role to a user, optionally time-bounded. Assigning an
// already held role updates the expiry instead of failing.
func (s *RBACService) AssignRole(ctx context.Context, userID, roleID, assignedBy string, expiresAt *time.Time) (RoleAssignment, error) {
	if _, err := s.store.Users().Find(ctx, userID); err != nil {
		return RoleAssignment{}, err
	}
	if _, err := s.store.Roles().Find(ctx, roleID); err != nil {
		return RoleAssignment{}, err
	}
	assignment := RoleAssignment{
		UserID:     userID,
		RoleID:     roleID,
		ExpiresAt:  expiresAt,
		AssignedAt: s.now().UTC(),
		AssignedBy: assignedBy,
	}
	if err := s.store.Roles().Assign(ctx, assignment); err != nil {
		return RoleAssignment{}, err
	}
	return assignment, nil
}

// RemoveRole revokes a role assignment.
func (s *RBACService) RemoveRole(ctx context.Context, userID, roleID string) error {
	return s.store.Roles().RemoveAssignment(ctx, userID, roleID)
}

// UserAssignments lists every assignment row for a user, expired included.
func (s *RBACService) UserAssignments(ctx context.Context, userID string) ([]RoleAssignment, error) {
	return s.store.Roles().AssignmentsForUser(ctx, userID)
}
