package auth

import (
	"context"
	"errors"
	"sort"
)

// Identity is an authenticated caller: the user record plus the permission
// set resolved from its role at authentication time.
type Identity struct {
	User        *User
	permissions map[string]struct{}
}

// NewIdentity builds an identity from a user and resolved permissions.
func NewIdentity(user *User, permissions []string) *Identity {
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return &Identity{User: user, permissions: set}
}

// HasPermission reports whether the identity holds the named permission.
func (id *Identity) HasPermission(name string) bool {
	if id == nil {
		return false
	}
	_, ok := id.permissions[name]
	return ok
}

// Permissions returns the resolved permission names, sorted.
func (id *Identity) Permissions() []string {
	if id == nil {
		return nil
	}
	out := make([]string, 0, len(id.permissions))
	for p := range id.permissions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Predicate is a composable authorization check over an authenticated
// identity. It returns nil to allow the request and an error to deny it.
type Predicate func(*Identity) error

// Require builds a predicate demanding a single permission.
func Require(permission string) Predicate {
	return func(id *Identity) error {
		if id == nil {
			return authnError(ReasonMissingToken, nil)
		}
		if !id.HasPermission(permission) {
			return &AuthorizationError{Permission: permission}
		}
		return nil
	}
}

// RequireAny builds a predicate satisfied by any one of the permissions.
func RequireAny(permissions ...string) Predicate {
	return func(id *Identity) error {
		if id == nil {
			return authnError(ReasonMissingToken, nil)
		}
		for _, p := range permissions {
			if id.HasPermission(p) {
				return nil
			}
		}
		var first string
		if len(permissions) > 0 {
			first = permissions[0]
		}
		return &AuthorizationError{Permission: first}
	}
}

// Gate runs the per-request authentication pipeline: validate the bearer
// token, load the user it names, resolve the user's permissions. Required
// permissions are then checked against the returned Identity via
// predicates; the gate itself performs no writes.
type Gate struct {
	tokens   *TokenService
	users    UserStore
	resolver *Resolver
}

// NewGate wires the gate from its three collaborators.
func NewGate(tokens *TokenService, users UserStore, resolver *Resolver) (*Gate, error) {
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if resolver == nil {
		return nil, errors.New("auth: resolver is required")
	}
	return &Gate{tokens: tokens, users: users, resolver: resolver}, nil
}

// Authenticate turns a raw bearer token into an Identity. Every failure is
// an *AuthenticationError; an unknown subject and a deactivated account are
// deliberately indistinguishable to the caller.
func (g *Gate) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, authnError(ReasonMissingToken, nil)
	}
	subject, err := g.tokens.Validate(rawToken)
	if err != nil {
		return nil, err
	}
	user, err := g.users.Find(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, authnError(ReasonUnknownOrInactive, nil)
		}
		return nil, err
	}
	if !user.Active {
		return nil, authnError(ReasonUnknownOrInactive, nil)
	}
	perms, err := g.resolver.Resolve(ctx, user.Role)
	if err != nil {
		return nil, err
	}
	return NewIdentity(user, perms), nil
}
