package httpapi

import (
	"context"
	"time"

	"identra.org/internal/auth"
)

type stubAuth struct {
	registerFn     func(context.Context, auth.RegisterInput) (*auth.User, error)
	loginFn        func(context.Context, string, string, auth.DeviceInfo) (*auth.User, auth.TokenPair, *auth.Session, error)
	refreshFn      func(context.Context, string) (auth.TokenPair, error)
	logoutFn       func(context.Context, *auth.User, string, bool) (int, error)
	verifyEmailFn  func(context.Context, string) (*auth.User, error)
	requestResetFn func(context.Context, string) error
	resetFn        func(context.Context, string, string) (*auth.User, error)
	authenticateFn func(context.Context, string) (auth.Principal, *auth.Session, error)
	sessionsFn     func(context.Context, string) ([]*auth.Session, error)
}

func (s *stubAuth) Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, in)
	}
	return &auth.User{}, nil
}

func (s *stubAuth) Login(ctx context.Context, email, password string, device auth.DeviceInfo) (*auth.User, auth.TokenPair, *auth.Session, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, email, password, device)
	}
	return &auth.User{}, auth.TokenPair{}, &auth.Session{}, nil
}

func (s *stubAuth) Refresh(ctx context.Context, token string) (auth.TokenPair, error) {
	if s.refreshFn != nil {
		return s.refreshFn(ctx, token)
	}
	return auth.TokenPair{}, nil
}

func (s *stubAuth) Logout(ctx context.Context, user *auth.User, sessionID string, allDevices bool) (int, error) {
	if s.logoutFn != nil {
		return s.logoutFn(ctx, user, sessionID, allDevices)
	}
	return 0, nil
}

func (s *stubAuth) VerifyEmail(ctx context.Context, token string) (*auth.User, error) {
	if s.verifyEmailFn != nil {
		return s.verifyEmailFn(ctx, token)
	}
	return &auth.User{}, nil
}

func (s *stubAuth) RequestPasswordReset(ctx context.Context, email string) error {
	if s.requestResetFn != nil {
		return s.requestResetFn(ctx, email)
	}
	return nil
}

func (s *stubAuth) ResetPassword(ctx context.Context, token, newPassword string) (*auth.User, error) {
	if s.resetFn != nil {
		return s.resetFn(ctx, token, newPassword)
	}
	return &auth.User{}, nil
}

func (s *stubAuth) Authenticate(ctx context.Context, token string) (auth.Principal, *auth.Session, error) {
	if s.authenticateFn != nil {
		return s.authenticateFn(ctx, token)
	}
	return auth.Principal{}, nil, auth.ErrTokenInvalid
}

func (s *stubAuth) Sessions(ctx context.Context, userID string) ([]*auth.Session, error) {
	if s.sessionsFn != nil {
		return s.sessionsFn(ctx, userID)
	}
	return nil, nil
}

type stubUsers struct {
	getFn            func(context.Context, string) (*auth.User, error)
	listFn           func(context.Context, auth.ListUsersFilter) ([]*auth.User, int, error)
	createFn         func(context.Context, auth.CreateInput) (*auth.User, error)
	updateFn         func(context.Context, string, auth.UserUpdate) (*auth.User, error)
	updateAdminFn    func(context.Context, string, auth.AdminUpdate) (*auth.User, error)
	changePasswordFn func(context.Context, string, string, string) error
	deleteFn         func(context.Context, string, bool) error
	restoreFn        func(context.Context, string) (*auth.User, error)
}

func (s *stubUsers) Get(ctx context.Context, userID string) (*auth.User, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return nil, auth.ErrNotFound
}

func (s *stubUsers) List(ctx context.Context, filter auth.ListUsersFilter) ([]*auth.User, int, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (s *stubUsers) Create(ctx context.Context, in auth.CreateInput) (*auth.User, error) {
	if s.createFn != nil {
		return s.createFn(ctx, in)
	}
	return &auth.User{}, nil
}

func (s *stubUsers) Update(ctx context.Context, userID string, upd auth.UserUpdate) (*auth.User, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, userID, upd)
	}
	return &auth.User{}, nil
}

func (s *stubUsers) UpdateAdmin(ctx context.Context, userID string, upd auth.AdminUpdate) (*auth.User, error) {
	if s.updateAdminFn != nil {
		return s.updateAdminFn(ctx, userID, upd)
	}
	return &auth.User{}, nil
}

func (s *stubUsers) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if s.changePasswordFn != nil {
		return s.changePasswordFn(ctx, userID, current, newPassword)
	}
	return nil
}

func (s *stubUsers) Delete(ctx context.Context, userID string, hard bool) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, hard)
	}
	return nil
}

func (s *stubUsers) Restore(ctx context.Context, userID string) (*auth.User, error) {
	if s.restoreFn != nil {
		return s.restoreFn(ctx, userID)
	}
	return &auth.User{}, nil
}

type stubRBAC struct {
	createRoleFn      func(context.Context, auth.RoleInput) (*auth.Role, error)
	updateRoleFn      func(context.Context, string, auth.RoleUpdate) (*auth.Role, error)
	deleteRoleFn      func(context.Context, string) error
	getRoleFn         func(context.Context, string) (*auth.Role, error)
	listRolesFn       func(context.Context) ([]*auth.Role, error)
	listPermsFn       func(context.Context) ([]auth.Permission, error)
	rolePermsFn       func(context.Context, string) ([]auth.Permission, error)
	setRolePermsFn    func(context.Context, string, []string, string) error
	assignRoleFn      func(context.Context, string, string, string, *time.Time) (auth.RoleAssignment, error)
	removeRoleFn      func(context.Context, string, string) error
	userAssignmentsFn func(context.Context, string) ([]auth.RoleAssignment, error)
}

func (s *stubRBAC) CreateRole(ctx context.Context, in auth.RoleInput) (*auth.Role, error) {
	if s.createRoleFn != nil {
		return s.createRoleFn(ctx, in)
	}
	return &auth.Role{}, nil
}

func (s *stubRBAC) UpdateRole(ctx context.Context, roleID string, upd auth.RoleUpdate) (*auth.Role, error) {
	if s.updateRoleFn != nil {
		return s.updateRoleFn(ctx, roleID, upd)
	}
	return &auth.Role{}, nil
}

func (s *stubRBAC) DeleteRole(ctx context.Context, roleID string) error {
	if s.deleteRoleFn != nil {
		return s.deleteRoleFn(ctx, roleID)
	}
	return nil
}

func (s *stubRBAC) GetRole(ctx context.Context, roleID string) (*auth.Role, error) {
	if s.getRoleFn != nil {
		return s.getRoleFn(ctx, roleID)
	}
	return nil, auth.ErrNotFound
}

func (s *stubRBAC) ListRoles(ctx context.Context) ([]*auth.Role, error) {
	if s.listRolesFn != nil {
		return s.listRolesFn(ctx)
	}
	return nil, nil
}

func (s *stubRBAC) ListPermissions(ctx context.Context) ([]auth.Permission, error) {
	if s.listPermsFn != nil {
		return s.listPermsFn(ctx)
	}
	return nil, nil
}

func (s *stubRBAC) RolePermissions(ctx context.Context, roleID string) ([]auth.Permission, error) {
	if s.rolePermsFn != nil {
		return s.rolePermsFn(ctx, roleID)
	}
	return nil, nil
}

func (s *stubRBAC) SetRolePermissions(ctx context.Context, roleID string, ids []string, grantedBy string) error {
	if s.setRolePermsFn != nil {
		return s.setRolePermsFn(ctx, roleID, ids, grantedBy)
	}
	return nil
}

func (s *stubRBAC) AssignRole(ctx context.Context, userID, roleID, assignedBy string, expiresAt *time.Time) (auth.RoleAssignment, error) {
	if s.assignRoleFn != nil {
		return s.assignRoleFn(ctx, userID, roleID, assignedBy, expiresAt)
	}
	return auth.RoleAssignment{}, nil
}

func (s *stubRBAC) RemoveRole(ctx context.Context, userID, roleID string) error {
	if s.removeRoleFn != nil {
		return s.removeRoleFn(ctx, userID, roleID)
	}
	return nil
}

func (s *stubRBAC) UserAssignments(ctx context.Context, userID string) ([]auth.RoleAssignment, error) {
	if s.userAssignmentsFn != nil {
		return s.userAssignmentsFn(ctx, userID)
	}
	return nil, nil
}
