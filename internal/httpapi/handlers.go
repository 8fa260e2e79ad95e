// Package httpapi is the HTTP surface of the identity service: auth flows,
// user administration, RBAC administration and operational endpoints.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"identra.org/internal/auth"
	"identra.org/internal/obs"
)

// ReadyProbe reports whether the service can take traffic.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// AuthService is the authentication surface handlers depend on. Satisfied by
// *auth.Service; tests supply stubs.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, error)
	Login(ctx context.Context, email, password string, device auth.DeviceInfo) (*auth.User, auth.TokenPair, *auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Logout(ctx context.Context, user *auth.User, sessionID string, allDevices bool) (int, error)
	VerifyEmail(ctx context.Context, token string) (*auth.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (*auth.User, error)
	Authenticate(ctx context.Context, accessToken string) (auth.Principal, *auth.Session, error)
	Sessions(ctx context.Context, userID string) ([]*auth.Session, error)
}

// UserAdmin is the user administration surface.
type UserAdmin interface {
	Get(ctx context.Context, userID string) (*auth.User, error)
	List(ctx context.Context, filter auth.ListUsersFilter) ([]*auth.User, int, error)
	Create(ctx context.Context, in auth.CreateInput) (*auth.User, error)
	Update(ctx context.Context, userID string, upd auth.UserUpdate) (*auth.User, error)
	UpdateAdmin(ctx context.Context, userID string, upd auth.AdminUpdate) (*auth.User, error)
	ChangePassword(ctx context.Context, userID, current, newPassword string) error
	Delete(ctx context.Context, userID string, hard bool) error
	Restore(ctx context.Context, userID string) (*auth.User, error)
}

// RBACAdmin is the role and permission administration surface.
type RBACAdmin interface {
	CreateRole(ctx context.Context, in auth.RoleInput) (*auth.Role, error)
	UpdateRole(ctx context.Context, roleID string, upd auth.RoleUpdate) (*auth.Role, error)
	DeleteRole(ctx context.Context, roleID string) error
	GetRole(ctx context.Context, roleID string) (*auth.Role, error)
	ListRoles(ctx context.Context) ([]*auth.Role, error)
	ListPermissions(ctx context.Context) ([]auth.Permission, error)
	RolePermissions(ctx context.Context, roleID string) ([]auth.Permission, error)
	SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string, grantedBy string) error
	AssignRole(ctx context.Context, userID, roleID, assignedBy string, expiresAt *time.Time) (auth.RoleAssignment, error)
	RemoveRole(ctx context.Context, userID, roleID string) error
	UserAssignments(ctx context.Context, userID string) ([]auth.RoleAssignment, error)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth  AuthService
	users UserAdmin
	rbac  RBACAdmin
}

// New wires all routes.
func New(rp ReadyProbe, version string, authSvc AuthService, users UserAdmin, rbac RBACAdmin) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       authSvc,
		users:      users,
		rbac:       rbac,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/verify-email", a.handleVerifyEmail)
	a.mux.HandleFunc("/v1/auth/password-reset/request", a.handlePasswordResetRequest)
	a.mux.HandleFunc("/v1/auth/password-reset", a.handlePasswordReset)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)
	a.mux.HandleFunc("/v1/auth/me/password", a.handleChangePassword)
	a.mux.HandleFunc("/v1/auth/sessions", a.handleSessions)
	a.mux.HandleFunc("/v1/auth/sessions/", a.handleSessionResource)

	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/v1/roles", a.handleRoles)
	a.mux.HandleFunc("/v1/roles/", a.handleRoleResource)
	a.mux.HandleFunc("/v1/permissions", a.handlePermissions)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler chain.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "identra-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "identra-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{"error": msg}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps the auth error taxonomy onto HTTP statuses. Locked and
// suspended accounts surface 403 with distinct messages; every other failed
// login collapses into a generic 401.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrAuthenticationFailed), errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccountLocked), errors.Is(err, auth.ErrAccountSuspended),
		errors.Is(err, auth.ErrAccountInactive), errors.Is(err, auth.ErrAuthorizationDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrBadRequest), errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
