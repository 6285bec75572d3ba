package auth

import "time"

// Permission is an atomic named capability, e.g. "write_chemicals".
// The catalog is seeded at bootstrap and grows only through Ensure; entries
// are never deleted at runtime.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role is a named bundle of permissions assignable to users. System roles
// are built in: they cannot be deleted and are resynced to their canonical
// definition on startup.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	System      bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an account. Role is a plain role name, not an enforced reference;
// a user can outlive the role it points at (see Registry.Reconcile).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleInput carries the caller-supplied fields for role creation.
type RoleInput struct {
	Name        string
	DisplayName string
	Description string
	Permissions []string
}

// RoleUpdate applies a partial update: nil fields are left untouched.
type RoleUpdate struct {
	DisplayName *string
	Description *string
	Permissions *[]string
}

// UserUpdate applies a partial update to the mutable user fields. By the
// time it reaches a store, Password holds the bcrypt digest, not plaintext.
type UserUpdate struct {
	Role     *string
	Active   *bool
	Password *string
}

// CreateUserInput carries the fields for administrative user creation.
type CreateUserInput struct {
	Email    string
	Password string
	Role     string
}
