package httpapi

import (
	"net/http"
	"time"

	"benchbook.org/internal/audit"
	"benchbook.org/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Role is accepted for wire compatibility and deliberately ignored:
	// self-registration always lands on the guest role.
	Role string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *auth.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, token, expiresAt, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"user_id": user.ID})
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identity.User)
}
