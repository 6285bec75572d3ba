package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// UserIDFromContext returns the authenticated user id, if any. Convenience
// for audit logging.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.User == nil {
		return "", false
	}
	return id.User.ID, true
}
