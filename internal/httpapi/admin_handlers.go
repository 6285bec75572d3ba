package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"benchbook.org/internal/audit"
	"benchbook.org/internal/auth"
)

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Role     *string `json:"role"`
	Active   *bool   `json:"is_active"`
	Password *string `json:"password"`
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.accounts.ListUsers(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := a.decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.accounts.CreateUser(r.Context(), auth.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.user.create", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})
	w.Header().Set("Location", "/api/admin/users/"+user.ID)
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := a.decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	targetID := chi.URLParam(r, "id")
	user, err := a.accounts.UpdateUser(r.Context(), identity.User.ID, targetID, auth.UserUpdate{
		Role:     req.Role,
		Active:   req.Active,
		Password: req.Password,
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.user.update", map[string]any{"user_id": targetID})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	targetID := chi.URLParam(r, "id")
	if err := a.accounts.DeleteUser(r.Context(), identity.User.ID, targetID); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.user.delete", map[string]any{"user_id": targetID})
	w.WriteHeader(http.StatusNoContent)
}
