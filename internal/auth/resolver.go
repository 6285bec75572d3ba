package auth

import (
	"context"
	"errors"
)

// legacyRolePermissions is the fixed fallback table from before roles were
// database-configurable. It keeps tokens and user records issued under the
// old model working when the registry has no entry for their role.
var legacyRolePermissions = map[string][]string{
	RoleAdmin:      {PermLegacyRead, PermLegacyWrite, PermLegacyDelete, PermManageUsers, PermManageRoles},
	RoleResearcher: {PermLegacyRead, PermLegacyWrite, PermLegacyDelete},
	RoleStudent:    {PermLegacyRead, PermLegacyWrite},
	RoleGuest:      {PermLegacyRead},
}

// PermissionSource supplies the permission set for a role name. The second
// return value reports whether the source knows the role at all; an unknown
// role is not an error.
type PermissionSource interface {
	Permissions(ctx context.Context, role string) ([]string, bool, error)
}

// Resolver maps a role name to its effective permission set by consulting
// an ordered chain of sources: the dynamic registry first, the legacy
// static table second. A role no source knows resolves to the empty set.
type Resolver struct {
	sources []PermissionSource
}

// NewResolver builds a resolver over the given sources, consulted in order.
func NewResolver(sources ...PermissionSource) *Resolver {
	return &Resolver{sources: sources}
}

// NewDefaultResolver wires the standard chain: registry, then legacy table.
func NewDefaultResolver(roles RoleStore) *Resolver {
	return NewResolver(RegistrySource(roles), LegacySource())
}

// Resolve returns the effective permissions for the role. Store failures
// propagate; a miss in every source yields an empty set, never an error.
func (r *Resolver) Resolve(ctx context.Context, role string) ([]string, error) {
	for _, src := range r.sources {
		perms, ok, err := src.Permissions(ctx, role)
		if err != nil {
			return nil, err
		}
		if ok {
			return perms, nil
		}
	}
	return []string{}, nil
}

// Known reports whether any source can resolve the role. Used by the
// reconcile pass to tell a stale role reference from a merely empty one.
func (r *Resolver) Known(ctx context.Context, role string) (bool, error) {
	for _, src := range r.sources {
		_, ok, err := src.Permissions(ctx, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type registrySource struct {
	roles RoleStore
}

// RegistrySource resolves roles out of the dynamic registry.
func RegistrySource(roles RoleStore) PermissionSource {
	return &registrySource{roles: roles}
}

func (s *registrySource) Permissions(ctx context.Context, role string) ([]string, bool, error) {
	r, err := s.roles.Find(ctx, role)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return append([]string(nil), r.Permissions...), true, nil
}

type legacySource struct{}

// LegacySource resolves the four pre-registry role names from the fixed
// in-process table.
func LegacySource() PermissionSource { return legacySource{} }

func (legacySource) Permissions(_ context.Context, role string) ([]string, bool, error) {
	perms, ok := legacyRolePermissions[role]
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), perms...), true, nil
}
