package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/ids"
)

// Accounts handles user lifecycle: self-registration, login, and the
// administrative user operations. It never exposes password hashes.
type Accounts struct {
	store    Store
	tokens   *TokenService
	resolver *Resolver
	now      func() time.Time
}

// NewAccounts wires the account service.
func NewAccounts(store Store, tokens *TokenService, resolver *Resolver) (*Accounts, error) {
	if store == nil {
		return nil, errors.New("auth: account store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	if resolver == nil {
		return nil, errors.New("auth: resolver is required")
	}
	return &Accounts{store: store, tokens: tokens, resolver: resolver, now: time.Now}, nil
}

// Register creates a self-service account. The role is always the guest
// role, whatever the caller asked for; email uniqueness is enforced by the
// store, so a duplicate surfaces as ErrConflict.
func (s *Accounts) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleGuest,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a session token. Unknown email
// and wrong password are indistinguishable; a deactivated account is
// reported as such only after the password checks out.
func (s *Accounts) Login(ctx context.Context, email, password string) (*User, string, time.Time, error) {
	email = strings.TrimSpace(email)
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// ListUsers returns every account.
func (s *Accounts) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.Users().List(ctx)
}

// GetUser returns the account with the given id.
func (s *Accounts) GetUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users().Find(ctx, id)
}

// CountUsers returns the total number of accounts.
func (s *Accounts) CountUsers(ctx context.Context) (int, error) {
	return s.store.Users().Count(ctx)
}

// CreateUser creates an account with an explicit role, for administrators.
// The role must resolve through the registry or the legacy table.
func (s *Accounts) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if in.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = RoleGuest
	}
	if err := s.checkRole(ctx, in.Role); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update to the target account. An
// administrator cannot change their own role or deactivate themselves.
func (s *Accounts) UpdateUser(ctx context.Context, actorID, targetID string, upd UserUpdate) (*User, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	target, err := s.store.Users().Find(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actorID == targetID {
		if upd.Role != nil && *upd.Role != target.Role {
			return nil, fmt.Errorf("%w: cannot change your own role", ErrInvalidInput)
		}
		if upd.Active != nil && !*upd.Active {
			return nil, fmt.Errorf("%w: cannot deactivate your own account", ErrInvalidInput)
		}
	}
	if upd.Role != nil {
		role := strings.TrimSpace(*upd.Role)
		upd.Role = &role
		if err := s.checkRole(ctx, role); err != nil {
			return nil, err
		}
	}
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
		}
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		upd.Password = &hash
	}
	return s.store.Users().Update(ctx, targetID, upd)
}

// DeleteUser removes the target account. Self-deletion is rejected.
func (s *Accounts) DeleteUser(ctx context.Context, actorID, targetID string) error {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidInput)
	}
	return s.store.Users().Delete(ctx, targetID)
}

// checkRole accepts any role the resolver can resolve, so both registry
// roles and legacy names are assignable.
func (s *Accounts) checkRole(ctx context.Context, role string) error {
	if role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	known, err := s.resolver.Known(ctx, role)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return nil
}
