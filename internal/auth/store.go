package auth

import "context"

// Store describes the persistence operations required by the auth
// subsystem. Implementations map storage-level uniqueness violations to
// ErrConflict and absent rows to ErrNotFound.
type Store interface {
	Users() UserStore
	Roles() RoleStore
	Permissions() PermissionStore
}

// UserStore manages user accounts. Lookups are exact-match only.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	ListByRole(ctx context.Context, role string) ([]*User, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role string) (int, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) error
}

// RoleStore manages the role catalog, keyed by role name.
type RoleStore interface {
	Create(ctx context.Context, role *Role) error
	Find(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Update(ctx context.Context, name string, upd RoleUpdate) (*Role, error)
	Delete(ctx context.Context, name string) error
}

// PermissionStore manages the permission catalog. Ensure inserts any
// missing entries and leaves existing ones untouched.
type PermissionStore interface {
	Ensure(ctx context.Context, perms []Permission) error
	Find(ctx context.Context, name string) (*Permission, error)
	List(ctx context.Context) ([]Permission, error)
}
