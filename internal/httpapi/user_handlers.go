package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"identra.org/internal/audit"
	"identra.org/internal/auth"
)

type createUserRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Locale    string `json:"locale"`
	Timezone  string `json:"timezone"`
	Status    string `json:"status"`
}

type updateUserRequest struct {
	Email         *string `json:"email"`
	Username      *string `json:"username"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Phone         *string `json:"phone"`
	Locale        *string `json:"locale"`
	Timezone      *string `json:"timezone"`
	Status        *string `json:"status"`
	EmailVerified *bool   `json:"email_verified"`
}

type assignRoleRequest struct {
	RoleID    string     `json:"role_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requirePermission(w, r, auth.ResourceUsers, auth.ActionRead); !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	filter := auth.ListUsersFilter{
		Search:         strings.TrimSpace(q.Get("search")),
		Status:         auth.Status(q.Get("status")),
		IncludeDeleted: q.Get("include_deleted") == "true",
		Page:           page,
		PageSize:       pageSize,
	}
	users, total, err := a.users.List(r.Context(), filter)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
	})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePermission(w, r, auth.ResourceUsers, auth.ActionCreate)
	if !ok {
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.users.Create(r.Context(), auth.CreateInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Locale:    req.Locale,
		Timezone:  req.Timezone,
		Status:    auth.Status(req.Status),
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "users.create", map[string]any{
		"user_id":    user.ID,
		"email":      user.Email,
		"created_by": principal.User.ID,
	})
	w.Header().Set("Location", "/v1/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	userID := parts[0]

	switch {
	case len(parts) == 1:
		a.userByID(w, r, userID)
	case len(parts) == 2 && parts[1] == "restore":
		a.restoreUser(w, r, userID)
	case len(parts) == 2 && parts[1] == "roles":
		a.userRoles(w, r, userID)
	case len(parts) == 3 && parts[1] == "roles":
		a.userRoleResource(w, r, userID, parts[2])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) userByID(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		principal, ok := requestPrincipal(w, r)
		if !ok {
			return
		}
		// own profile is always readable; anyone else needs users:read
		if principal.User.ID != userID && !principal.Allowed(auth.ResourceUsers, auth.ActionRead) {
			writeError(w, r, http.StatusForbidden, auth.ErrAuthorizationDenied.Error())
			return
		}
		user, err := a.users.Get(r.Context(), userID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPatch:
		a.updateUser(w, r, userID)

	case http.MethodDelete:
		principal, ok := a.requirePermission(w, r, auth.ResourceUsers, auth.ActionDelete)
		if !ok {
			return
		}
		hard := r.URL.Query().Get("hard") == "true"
		if err := a.users.Delete(r.Context(), userID, hard); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "users.delete", map[string]any{
			"user_id":    userID,
			"hard":       hard,
			"deleted_by": principal.User.ID,
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, userID string) {
	principal, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	base := auth.UserUpdate{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Locale:    req.Locale,
		Timezone:  req.Timezone,
	}

	// self-service updates touch profile fields only
	if principal.User.ID == userID && req.Status == nil && req.EmailVerified == nil {
		user, err := a.users.Update(r.Context(), userID, base)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	if !principal.Allowed(auth.ResourceUsers, auth.ActionUpdate) {
		writeError(w, r, http.StatusForbidden, auth.ErrAuthorizationDenied.Error())
		return
	}
	upd := auth.AdminUpdate{UserUpdate: base, EmailVerified: req.EmailVerified}
	if req.Status != nil {
		status := auth.Status(*req.Status)
		upd.Status = &status
	}
	user, err := a.users.UpdateAdmin(r.Context(), userID, upd)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "users.update", map[string]any{
		"user_id":    userID,
		"updated_by": principal.User.ID,
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) restoreUser(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.requirePermission(w, r, auth.ResourceUsers, auth.ActionManage)
	if !ok {
		return
	}
	user, err := a.users.Restore(r.Context(), userID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "users.restore", map[string]any{
		"user_id":     userID,
		"restored_by": principal.User.ID,
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) userRoles(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead); !ok {
			return
		}
		assignments, err := a.rbac.UserAssignments(r.Context(), userID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})

	case http.MethodPost:
		principal, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionManage)
		if !ok {
			return
		}
		var req assignRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.RoleID) == "" {
			writeError(w, r, http.StatusBadRequest, "role_id is required")
			return
		}
		assignment, err := a.rbac.AssignRole(r.Context(), userID, req.RoleID, principal.User.ID, req.ExpiresAt)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.assign", map[string]any{
			"user_id":     userID,
			"role_id":     assignment.RoleID,
			"assigned_by": principal.User.ID,
		})
		writeJSON(w, http.StatusCreated, assignment)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) userRoleResource(w http.ResponseWriter, r *http.Request, userID, roleID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	principal, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionManage)
	if !ok {
		return
	}
	if err := a.rbac.RemoveRole(r.Context(), userID, roleID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.role.remove", map[string]any{
		"user_id":    userID,
		"role_id":    roleID,
		"removed_by": principal.User.ID,
	})
	w.WriteHeader(http.StatusNoContent)
}
