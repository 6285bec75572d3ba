package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"benchbook.org/internal/ids"
)

// MemStore is an in-memory Store. It backs tests and lets the API run
// without a database; semantics match the Postgres store, including
// ErrConflict on duplicate emails and role names.
type MemStore struct {
	mu     sync.RWMutex
	users  map[string]*User
	emails map[string]string
	roles  map[string]*Role
	perms  map[string]*Permission
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:  make(map[string]*User),
		emails: make(map[string]string),
		roles:  make(map[string]*Role),
		perms:  make(map[string]*Permission),
	}
}

func (s *MemStore) Users() UserStore             { return &memUsers{s: s} }
func (s *MemStore) Roles() RoleStore             { return &memRoles{s: s} }
func (s *MemStore) Permissions() PermissionStore { return &memPerms{s: s} }

// User store ---------------------------------------------------------------

type memUsers struct{ s *MemStore }

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, taken := m.s.emails[u.Email]; taken {
		return fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.s.users[u.ID] = &cp
	m.s.emails[u.Email] = u.ID
	return nil
}

func (m *memUsers) Find(_ context.Context, id string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	id, ok := m.s.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.s.users[id]
	return &cp, nil
}

func (m *memUsers) List(_ context.Context) ([]*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]*User, 0, len(m.s.users))
	for _, u := range m.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sortUsers(out)
	return out, nil
}

func (m *memUsers) ListByRole(_ context.Context, role string) ([]*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []*User
	for _, u := range m.s.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sortUsers(out)
	return out, nil
}

func (m *memUsers) Count(_ context.Context) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return len(m.s.users), nil
}

func (m *memUsers) CountByRole(_ context.Context, role string) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, u := range m.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *memUsers) Update(_ context.Context, id string, upd UserUpdate) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
	if upd.Password != nil {
		u.PasswordHash = *upd.Password
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.s.emails, u.Email)
	delete(m.s.users, id)
	return nil
}

func sortUsers(users []*User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

// Role store ---------------------------------------------------------------

type memRoles struct{ s *MemStore }

func (m *memRoles) Create(_ context.Context, role *Role) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, taken := m.s.roles[role.Name]; taken {
		return fmt.Errorf("%w: role %q already exists", ErrConflict, role.Name)
	}
	if role.ID == "" {
		role.ID = ids.New()
	}
	cp := cloneRole(role)
	m.s.roles[role.Name] = cp
	return nil
}

func (m *memRoles) Find(_ context.Context, name string) (*Role, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	role, ok := m.s.roles[name]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRole(role), nil
}

func (m *memRoles) List(_ context.Context) ([]*Role, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]*Role, 0, len(m.s.roles))
	for _, role := range m.s.roles {
		out = append(out, cloneRole(role))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memRoles) Update(_ context.Context, name string, upd RoleUpdate) (*Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	role, ok := m.s.roles[name]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.DisplayName != nil {
		role.DisplayName = *upd.DisplayName
	}
	if upd.Description != nil {
		role.Description = *upd.Description
	}
	if upd.Permissions != nil {
		perms := make([]string, len(*upd.Permissions))
		copy(perms, *upd.Permissions)
		role.Permissions = perms
	}
	role.UpdatedAt = time.Now().UTC()
	return cloneRole(role), nil
}

func (m *memRoles) Delete(_ context.Context, name string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.roles[name]; !ok {
		return ErrNotFound
	}
	delete(m.s.roles, name)
	return nil
}

// cloneRole deep-copies the permission slice so callers cannot mutate
// stored state; an empty list stays non-nil and encodes as [].
func cloneRole(role *Role) *Role {
	cp := *role
	cp.Permissions = make([]string, len(role.Permissions))
	copy(cp.Permissions, role.Permissions)
	return &cp
}

// Permission store ----------------------------------------------------------

type memPerms struct{ s *MemStore }

func (m *memPerms) Ensure(_ context.Context, perms []Permission) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, p := range perms {
		if _, ok := m.s.perms[p.Name]; ok {
			continue
		}
		if p.ID == "" {
			p.ID = ids.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		cp := p
		m.s.perms[p.Name] = &cp
	}
	return nil
}

func (m *memPerms) Find(_ context.Context, name string) (*Permission, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	p, ok := m.s.perms[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPerms) List(_ context.Context) ([]Permission, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]Permission, 0, len(m.s.perms))
	for _, p := range m.s.perms {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
