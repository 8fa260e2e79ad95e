package auth

import (
	"context"
	"strings"
)

// Principal is a user with their currently-active role set and the
// permissions those roles grant, resolved through explicit queries rather
// than a live object graph.
type Principal struct {
	User  *User
	Roles []Role

	// grants maps "resource:action" to the scopes granted for that pair.
	grants map[string][]Scope
}

func grantKey(resource string, action Action) string {
	return resource + ":" + string(action)
}

// NewPrincipal builds a principal from preloaded roles and permissions.
func NewPrincipal(user *User, roles []Role, perms []Permission) Principal {
	grants := make(map[string][]Scope, len(perms))
	for _, p := range perms {
		key := grantKey(p.Resource, p.Action)
		grants[key] = appendScope(grants[key], p.Scope)
	}
	return Principal{User: user, Roles: roles, grants: grants}
}

func appendScope(scopes []Scope, s Scope) []Scope {
	for _, existing := range scopes {
		if existing == s {
			return scopes
		}
	}
	return append(scopes, s)
}

// Allowed reports whether any active role grants (resource, action). Scope
// is not part of the comparison; callers that need "own records only"
// semantics consult GrantedScopes and enforce against their target object.
func (p Principal) Allowed(resource string, action Action) bool {
	_, ok := p.grants[grantKey(resource, action)]
	return ok
}

// GrantedScopes returns the scopes granted for (resource, action), or nil.
func (p Principal) GrantedScopes(resource string, action Action) []Scope {
	return p.grants[grantKey(resource, action)]
}

// HasRole reports whether the principal's active role set intersects names.
func (p Principal) HasRole(names ...string) bool {
	for _, role := range p.Roles {
		for _, name := range names {
			if strings.EqualFold(role.Name, name) {
				return true
			}
		}
	}
	return false
}

// Principal loads the user and resolves their permission set: user row, then
// non-expired role assignments, then each role's explicit permission rows.
// Parent-role linkage is ignored on purpose; a role confers only the
// permissions directly granted to it.
func (s *Service) Principal(ctx context.Context, userID string) (Principal, error) {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return Principal{}, err
	}

	assignments, err := s.store.Roles().AssignmentsForUser(ctx, userID)
	if err != nil {
		return Principal{}, err
	}

	now := s.now().UTC()
	var (
		roles []Role
		perms []Permission
	)
	for _, a := range assignments {
		if !a.ActiveAt(now) {
			continue
		}
		role, err := s.store.Roles().Find(ctx, a.RoleID)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return Principal{}, err
		}
		roles = append(roles, *role)

		list, err := s.store.Permissions().ForRole(ctx, a.RoleID)
		if err != nil {
			return Principal{}, err
		}
		perms = append(perms, list...)
	}
	return NewPrincipal(user, roles, perms), nil
}

// Authorize reports whether the user may perform action on resource. Absence
// of permission is false, never an error; only persistence failures surface.
func (s *Service) Authorize(ctx context.Context, userID, resource string, action Action) (bool, error) {
	principal, err := s.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return principal.Allowed(resource, action), nil
}

// HasRole reports whether the user's active role set intersects names.
func (s *Service) HasRole(ctx context.Context, userID string, names ...string) (bool, error) {
	principal, err := s.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return principal.HasRole(names...), nil
}

// Require loads the principal and fails with ErrAuthorizationDenied unless
// (resource, action) is granted.
func (s *Service) Require(ctx context.Context, userID, resource string, action Action) (Principal, error) {
	principal, err := s.Principal(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	if !principal.Allowed(resource, action) {
		return Principal{}, ErrAuthorizationDenied
	}
	return principal, nil
}
