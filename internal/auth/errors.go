package auth

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrConflict           = errors.New("auth: conflict")
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountDisabled    = errors.New("auth: account disabled")
)

// AuthnReason classifies why a request failed authentication.
type AuthnReason string

const (
	ReasonMissingToken      AuthnReason = "missing_token"
	ReasonMalformed         AuthnReason = "malformed"
	ReasonBadSignature      AuthnReason = "bad_signature"
	ReasonExpired           AuthnReason = "expired"
	ReasonMissingSubject    AuthnReason = "missing_subject"
	ReasonUnknownOrInactive AuthnReason = "unknown_or_inactive"
)

// AuthenticationError is returned whenever a caller cannot be identified:
// the bearer token is absent, unparseable, forged, expired, or names a user
// that no longer exists or is deactivated.
type AuthenticationError struct {
	Reason AuthnReason
	cause  error
}

func authnError(reason AuthnReason, cause error) *AuthenticationError {
	return &AuthenticationError{Reason: reason, cause: cause}
}

func (e *AuthenticationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("auth: not authenticated (%s): %v", e.Reason, e.cause)
	}
	return fmt.Sprintf("auth: not authenticated (%s)", e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.cause }

// AuthorizationError is returned for an authenticated caller whose resolved
// permission set does not contain the required permission.
type AuthorizationError struct {
	Permission string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("auth: permission %q required", e.Permission)
}
