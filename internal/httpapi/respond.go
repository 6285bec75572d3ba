package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/journal"
	"benchbook.org/internal/obs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError renders the standard error body. The request id is echoed
// when the RequestID middleware has stamped one, so clients can quote it
// in bug reports.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	body := map[string]any{"error": msg}
	if rid := requestIDFrom(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	writeJSON(w, status, body)
}

// handleServiceError maps service-layer errors onto HTTP statuses in one
// place so handlers stay free of status bookkeeping.
func (a *API) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var authnErr *auth.AuthenticationError
	var authzErr *auth.AuthorizationError
	switch {
	case errors.As(err, &authnErr):
		w.Header().Set("WWW-Authenticate", `Bearer realm="benchbook"`)
		writeError(w, r, http.StatusUnauthorized, "not authenticated")
	case errors.As(err, &authzErr):
		writeError(w, r, http.StatusForbidden, authzErr.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, r, http.StatusUnauthorized, "account is deactivated")
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, journal.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, journal.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		obs.Logger().Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes the request body into dst and runs tag validation.
// Unknown fields are tolerated so clients can send extra fields without
// breaking.
func (a *API) decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid json payload")
	}
	if err := a.validate.Struct(dst); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "email":
			return field + " must be a valid email address"
		default:
			return field + " is invalid"
		}
	}
	return "invalid request payload"
}
