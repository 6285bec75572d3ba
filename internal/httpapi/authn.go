package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/obs"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// withAuth authenticates the bearer token and stores the resulting
// identity in the request context. OPTIONS passes through so CORS
// preflight never needs credentials.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := a.gate.Authenticate(r.Context(), extractBearerToken(r.Header.Get(authHeader)))
		if err != nil {
			var authnErr *auth.AuthenticationError
			if errors.As(err, &authnErr) {
				obs.ObserveAuthAttempt(string(authnErr.Reason))
			} else {
				obs.ObserveAuthAttempt("error")
			}
			a.handleServiceError(w, r, err)
			return
		}
		obs.ObserveAuthAttempt("ok")
		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

// extractBearerToken pulls the token out of an Authorization header. The
// scheme comparison is case-insensitive; anything that is not a bearer
// credential comes back empty and fails authentication downstream.
func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// require adapts an authorization predicate into route middleware. It
// expects withAuth to have run already; without an identity the predicate
// reports a missing token.
func (a *API) require(pred auth.Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := auth.IdentityFromContext(r.Context())
			if err := pred(identity); err != nil {
				a.handleServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// mustIdentity returns the authenticated identity. Handlers behind
// withAuth can rely on it being present; the error path only fires if a
// route was wired without the middleware.
func mustIdentity(r *http.Request) (*auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil || identity.User == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissingToken}
	}
	return identity, nil
}
