package httpapi

import (
	"net/http"
	"strings"

	"identra.org/internal/audit"
	"identra.org/internal/auth"
)

type createRoleRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Priority     int    `json:"priority"`
	ParentRoleID string `json:"parent_role_id"`
}

type updateRoleRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Priority     *int    `json:"priority"`
	ParentRoleID *string `json:"parent_role_id"`
}

type setPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead); !ok {
			return
		}
		roles, err := a.rbac.ListRoles(r.Context())
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"roles": roles})

	case http.MethodPost:
		principal, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionCreate)
		if !ok {
			return
		}
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.rbac.CreateRole(r.Context(), auth.RoleInput{
			Name:         req.Name,
			Description:  req.Description,
			Priority:     req.Priority,
			ParentRoleID: req.ParentRoleID,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.create", map[string]any{
			"role_id":    role.ID,
			"name":       role.Name,
			"created_by": principal.User.ID,
		})
		w.Header().Set("Location", "/v1/roles/"+role.ID)
		writeJSON(w, http.StatusCreated, role)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/roles/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	roleID := parts[0]

	switch {
	case len(parts) == 1:
		a.roleByID(w, r, roleID)
	case len(parts) == 2 && parts[1] == "permissions":
		a.rolePermissions(w, r, roleID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) roleByID(w http.ResponseWriter, r *http.Request, roleID string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead); !ok {
			return
		}
		role, err := a.rbac.GetRole(r.Context(), roleID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, role)

	case http.MethodPatch:
		principal, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionUpdate)
		if !ok {
			return
		}
		var req updateRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.rbac.UpdateRole(r.Context(), roleID, auth.RoleUpdate{
			Name:         req.Name,
			Description:  req.Description,
			Priority:     req.Priority,
			ParentRoleID: req.ParentRoleID,
		})
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.update", map[string]any{
			"role_id":    roleID,
			"updated_by": principal.User.ID,
		})
		writeJSON(w, http.StatusOK, role)

	case http.MethodDelete:
		principal, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionDelete)
		if !ok {
			return
		}
		if err := a.rbac.DeleteRole(r.Context(), roleID); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.delete", map[string]any{
			"role_id":    roleID,
			"deleted_by": principal.User.ID,
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) rolePermissions(w http.ResponseWriter, r *http.Request, roleID string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead); !ok {
			return
		}
		perms, err := a.rbac.RolePermissions(r.Context(), roleID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})

	case http.MethodPut:
		principal, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionManage)
		if !ok {
			return
		}
		var req setPermissionsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.rbac.SetRolePermissions(r.Context(), roleID, req.PermissionIDs, principal.User.ID); err != nil {
			handleAuthError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "rbac.role.permissions.set", map[string]any{
			"role_id":    roleID,
			"count":      len(req.PermissionIDs),
			"granted_by": principal.User.ID,
		})
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead); !ok {
		return
	}
	perms, err := a.rbac.ListPermissions(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}
