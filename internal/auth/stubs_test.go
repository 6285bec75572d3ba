package auth

import (
	"context"
	"errors"
)

var errUnexpectedCall = errors.New("unexpected store call")

type stubUserStore struct {
	createFn      func(ctx context.Context, u *User) error
	findFn        func(ctx context.Context, id string) (*User, error)
	findByEmailFn func(ctx context.Context, email string) (*User, error)
	listFn        func(ctx context.Context) ([]*User, error)
	listByRoleFn  func(ctx context.Context, role string) ([]*User, error)
	countFn       func(ctx context.Context) (int, error)
	countByRoleFn func(ctx context.Context, role string) (int, error)
	updateFn      func(ctx context.Context, id string, upd UserUpdate) (*User, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (s *stubUserStore) Create(ctx context.Context, u *User) error {
	if s.createFn != nil {
		return s.createFn(ctx, u)
	}
	return errUnexpectedCall
}

func (s *stubUserStore) Find(ctx context.Context, id string) (*User, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return nil, errUnexpectedCall
}

func (s *stubUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	if s.findByEmailFn != nil {
		return s.findByEmailFn(ctx, email)
	}
	return nil, errUnexpectedCall
}

func (s *stubUserStore) List(ctx context.Context) ([]*User, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, errUnexpectedCall
}

func (s *stubUserStore) ListByRole(ctx context.Context, role string) ([]*User, error) {
	if s.listByRoleFn != nil {
		return s.listByRoleFn(ctx, role)
	}
	return nil, errUnexpectedCall
}

func (s *stubUserStore) Count(ctx context.Context) (int, error) {
	if s.countFn != nil {
		return s.countFn(ctx)
	}
	return 0, errUnexpectedCall
}

func (s *stubUserStore) CountByRole(ctx context.Context, role string) (int, error) {
	if s.countByRoleFn != nil {
		return s.countByRoleFn(ctx, role)
	}
	return 0, errUnexpectedCall
}

func (s *stubUserStore) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, upd)
	}
	return nil, errUnexpectedCall
}

func (s *stubUserStore) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return errUnexpectedCall
}

type stubRoleStore struct {
	createFn func(ctx context.Context, role *Role) error
	findFn   func(ctx context.Context, name string) (*Role, error)
	listFn   func(ctx context.Context) ([]*Role, error)
	updateFn func(ctx context.Context, name string, upd RoleUpdate) (*Role, error)
	deleteFn func(ctx context.Context, name string) error
}

func (s *stubRoleStore) Create(ctx context.Context, role *Role) error {
	if s.createFn != nil {
		return s.createFn(ctx, role)
	}
	return errUnexpectedCall
}

func (s *stubRoleStore) Find(ctx context.Context, name string) (*Role, error) {
	if s.findFn != nil {
		return s.findFn(ctx, name)
	}
	return nil, errUnexpectedCall
}

func (s *stubRoleStore) List(ctx context.Context) ([]*Role, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, errUnexpectedCall
}

func (s *stubRoleStore) Update(ctx context.Context, name string, upd RoleUpdate) (*Role, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, name, upd)
	}
	return nil, errUnexpectedCall
}

func (s *stubRoleStore) Delete(ctx context.Context, name string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, name)
	}
	return errUnexpectedCall
}

type stubPermissionStore struct {
	ensureFn func(ctx context.Context, perms []Permission) error
	findFn   func(ctx context.Context, name string) (*Permission, error)
	listFn   func(ctx context.Context) ([]Permission, error)
}

func (s *stubPermissionStore) Ensure(ctx context.Context, perms []Permission) error {
	if s.ensureFn != nil {
		return s.ensureFn(ctx, perms)
	}
	return errUnexpectedCall
}

func (s *stubPermissionStore) Find(ctx context.Context, name string) (*Permission, error) {
	if s.findFn != nil {
		return s.findFn(ctx, name)
	}
	return nil, errUnexpectedCall
}

func (s *stubPermissionStore) List(ctx context.Context) ([]Permission, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, errUnexpectedCall
}

type stubStore struct {
	users *stubUserStore
	roles *stubRoleStore
	perms *stubPermissionStore
}

func (s *stubStore) Users() UserStore {
	if s.users == nil {
		s.users = &stubUserStore{}
	}
	return s.users
}

func (s *stubStore) Roles() RoleStore {
	if s.roles == nil {
		s.roles = &stubRoleStore{}
	}
	return s.roles
}

func (s *stubStore) Permissions() PermissionStore {
	if s.perms == nil {
		s.perms = &stubPermissionStore{}
	}
	return s.perms
}
