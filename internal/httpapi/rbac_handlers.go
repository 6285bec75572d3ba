package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"benchbook.org/internal/audit"
	"benchbook.org/internal/auth"
)

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type updateRoleRequest struct {
	DisplayName *string   `json:"display_name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}

type reconcileRequest struct {
	Apply bool `json:"apply"`
}

func (a *API) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := a.registry.ListPermissions(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := a.registry.ListRoles(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (a *API) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := a.decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := a.registry.CreateRole(r.Context(), auth.RoleInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.role.create", map[string]any{"role": role.Name})
	w.Header().Set("Location", "/api/roles/"+role.Name)
	writeJSON(w, http.StatusCreated, role)
}

func (a *API) handleGetRole(w http.ResponseWriter, r *http.Request) {
	role, err := a.registry.GetRole(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := a.decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := chi.URLParam(r, "name")
	role, err := a.registry.UpdateRole(r.Context(), name, auth.RoleUpdate{
		DisplayName: req.DisplayName,
		Description: req.Description,
		Permissions: req.Permissions,
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.role.update", map[string]any{"role": name})
	writeJSON(w, http.StatusOK, role)
}

func (a *API) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.registry.DeleteRole(r.Context(), name); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.role.delete", map[string]any{"role": name})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRoleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.registry.RoleUsers(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleReconcileRoles reports accounts whose role no longer resolves.
// An empty body is a dry run; {"apply": true} reassigns stale accounts to
// the guest role.
func (a *API) handleReconcileRoles(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if r.ContentLength != 0 {
		if err := a.decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	report, err := a.registry.Reconcile(r.Context(), a.resolver, req.Apply)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "rbac.roles.reconcile", map[string]any{
		"apply":      req.Apply,
		"checked":    report.Checked,
		"stale":      len(report.Stale),
		"reassigned": report.Reassigned,
	})
	writeJSON(w, http.StatusOK, report)
}
