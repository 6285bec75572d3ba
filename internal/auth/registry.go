package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/ids"
)

// Registry is the dynamic role/permission catalog. Roles reference
// permissions by name; every referenced name must exist in the catalog at
// the time the role is written. Nothing is enforced after the write, which
// is what keeps the user->role and role->permission references weak.
type Registry struct {
	store Store
	now   func() time.Time
}

// NewRegistry builds a registry over the given store.
func NewRegistry(store Store) (*Registry, error) {
	if store == nil {
		return nil, errors.New("auth: registry store is required")
	}
	return &Registry{store: store, now: time.Now}, nil
}

// ListPermissions returns the full permission catalog.
func (r *Registry) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.store.Permissions().List(ctx)
}

// ListRoles returns every role, system and custom alike.
func (r *Registry) ListRoles(ctx context.Context) ([]*Role, error) {
	return r.store.Roles().List(ctx)
}

// GetRole returns the role with the given name.
func (r *Registry) GetRole(ctx context.Context, name string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	return r.store.Roles().Find(ctx, name)
}

// CreateRole validates the input and inserts a new custom role. The name
// must be unused and every permission must exist in the catalog; on any
// validation failure nothing is written.
func (r *Registry) CreateRole(ctx context.Context, in RoleInput) (*Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Name
	}
	in.Permissions = trimAll(in.Permissions)
	if err := r.checkPermissions(ctx, in.Permissions); err != nil {
		return nil, err
	}
	now := r.now().UTC()
	role := &Role{
		ID:          ids.New(),
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Description: in.Description,
		Permissions: append([]string(nil), in.Permissions...),
		System:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	if err := r.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// UpdateRole applies the supplied fields to an existing role. Nil fields
// stay untouched; a supplied permission list is validated the same way as
// on create. The update timestamp is refreshed even when no field is set.
func (r *Registry) UpdateRole(ctx context.Context, name string, upd RoleUpdate) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if upd.Permissions != nil {
		trimmed := trimAll(*upd.Permissions)
		upd.Permissions = &trimmed
		if err := r.checkPermissions(ctx, trimmed); err != nil {
			return nil, err
		}
	}
	if upd.DisplayName != nil && strings.TrimSpace(*upd.DisplayName) == "" {
		return nil, fmt.Errorf("%w: display name cannot be empty", ErrInvalidInput)
	}
	return r.store.Roles().Update(ctx, name, upd)
}

// DeleteRole removes a custom role. System roles and roles still assigned
// to at least one user are protected and fail with ErrConflict.
func (r *Registry) DeleteRole(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	role, err := r.store.Roles().Find(ctx, name)
	if err != nil {
		return err
	}
	if role.System {
		return fmt.Errorf("%w: system role %q cannot be deleted", ErrConflict, name)
	}
	n, err := r.store.Users().CountByRole(ctx, name)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: role %q is assigned to %d user(s)", ErrConflict, name, n)
	}
	return r.store.Roles().Delete(ctx, name)
}

// RoleUsers lists the users currently assigned the named role.
func (r *Registry) RoleUsers(ctx context.Context, name string) ([]*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if _, err := r.store.Roles().Find(ctx, name); err != nil {
		return nil, err
	}
	return r.store.Users().ListByRole(ctx, name)
}

// checkPermissions rejects duplicates and names missing from the catalog.
// One catalog lookup per name, sequential; permission lists are short.
func (r *Registry) checkPermissions(ctx context.Context, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%w: empty permission name", ErrInvalidInput)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate permission %q", ErrInvalidInput, name)
		}
		seen[name] = struct{}{}
		if _, err := r.store.Permissions().Find(ctx, name); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, name)
			}
			return err
		}
	}
	return nil
}

func trimAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, strings.TrimSpace(name))
	}
	return out
}
