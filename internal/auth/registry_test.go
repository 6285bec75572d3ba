package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, *MemStore) {
	t.Helper()
	store := seededMemStore(t)
	reg, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg, store
}

func TestCreateRole(t *testing.T) {
	reg, _ := newTestRegistry(t)
	role, err := reg.CreateRole(context.Background(), RoleInput{
		Name:        "lab_manager",
		DisplayName: "Lab Manager",
		Description: "Runs the lab",
		Permissions: []string{PermReadChemicals, PermWriteChemicals},
	})
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	if role.ID == "" {
		t.Fatal("expected generated role id")
	}
	if role.System {
		t.Fatal("created roles must not be system roles")
	}
	if role.CreatedAt.IsZero() || !role.CreatedAt.Equal(role.UpdatedAt) {
		t.Fatalf("unexpected timestamps: %v / %v", role.CreatedAt, role.UpdatedAt)
	}

	found, err := reg.GetRole(context.Background(), "lab_manager")
	if err != nil {
		t.Fatalf("GetRole failed: %v", err)
	}
	if !reflect.DeepEqual(found.Permissions, []string{PermReadChemicals, PermWriteChemicals}) {
		t.Fatalf("unexpected permissions: %v", found.Permissions)
	}
}

func TestCreateRoleDefaultsDisplayName(t *testing.T) {
	reg, _ := newTestRegistry(t)
	role, err := reg.CreateRole(context.Background(), RoleInput{Name: "auditor"})
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	if role.DisplayName != "auditor" {
		t.Fatalf("unexpected display name: %q", role.DisplayName)
	}
	if role.Permissions == nil || len(role.Permissions) != 0 {
		t.Fatalf("expected empty permission list, got %v", role.Permissions)
	}
}

func TestCreateRoleDuplicateName(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.CreateRole(context.Background(), RoleInput{Name: RoleAdmin}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateRoleUnknownPermission(t *testing.T) {
	reg, _ := newTestRegistry(t)
	before, err := reg.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}

	_, err = reg.CreateRole(context.Background(), RoleInput{
		Name:        "broken",
		Permissions: []string{PermReadChemicals, "does_not_exist"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	after, err := reg.ListRoles(context.Background())
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("registry changed on failed create: %d -> %d roles", len(before), len(after))
	}
}

func TestCreateRoleRejectsDuplicatePermissions(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.CreateRole(context.Background(), RoleInput{
		Name:        "dupes",
		Permissions: []string{PermLegacyRead, PermLegacyRead},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateRolePartial(t *testing.T) {
	reg, _ := newTestRegistry(t)
	created, err := reg.CreateRole(context.Background(), RoleInput{
		Name:        "lab_manager",
		DisplayName: "Lab Manager",
		Permissions: []string{PermReadChemicals},
	})
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	display := "Laboratory Manager"
	updated, err := reg.UpdateRole(context.Background(), "lab_manager", RoleUpdate{DisplayName: &display})
	if err != nil {
		t.Fatalf("UpdateRole failed: %v", err)
	}
	if updated.DisplayName != display {
		t.Fatalf("display name not applied: %q", updated.DisplayName)
	}
	if !reflect.DeepEqual(updated.Permissions, []string{PermReadChemicals}) {
		t.Fatalf("permissions must stay untouched, got %v", updated.Permissions)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Fatal("updated_at must be refreshed")
	}
}

func TestUpdateRoleValidatesPermissions(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.CreateRole(context.Background(), RoleInput{Name: "lab_manager"}); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	bad := []string{"does_not_exist"}
	if _, err := reg.UpdateRole(context.Background(), "lab_manager", RoleUpdate{Permissions: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	role, err := reg.GetRole(context.Background(), "lab_manager")
	if err != nil {
		t.Fatalf("GetRole failed: %v", err)
	}
	if len(role.Permissions) != 0 {
		t.Fatalf("role changed on failed update: %v", role.Permissions)
	}
}

func TestUpdateRoleMissing(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if _, err := reg.UpdateRole(context.Background(), "ghost", RoleUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSystemRole(t *testing.T) {
	reg, _ := newTestRegistry(t)
	for _, name := range []string{RoleAdmin, RoleResearcher, RoleStudent, RoleGuest} {
		if err := reg.DeleteRole(context.Background(), name); !errors.Is(err, ErrConflict) {
			t.Fatalf("deleting system role %q: expected ErrConflict, got %v", name, err)
		}
	}
}

func TestDeleteRoleWithUsers(t *testing.T) {
	reg, store := newTestRegistry(t)
	if _, err := reg.CreateRole(context.Background(), RoleInput{Name: "lab_manager"}); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}
	user := &User{Email: "manager@lab.com", PasswordHash: "x", Role: "lab_manager", Active: true}
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := reg.DeleteRole(context.Background(), "lab_manager"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while referenced, got %v", err)
	}

	if err := store.Users().Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := reg.DeleteRole(context.Background(), "lab_manager"); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if _, err := reg.GetRole(context.Background(), "lab_manager"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("role should be gone, got %v", err)
	}
}

func TestDeleteRoleMissing(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if err := reg.DeleteRole(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoleUsers(t *testing.T) {
	reg, store := newTestRegistry(t)
	users := []*User{
		{Email: "a@lab.com", PasswordHash: "x", Role: RoleStudent, Active: true},
		{Email: "b@lab.com", PasswordHash: "x", Role: RoleStudent, Active: true},
		{Email: "c@lab.com", PasswordHash: "x", Role: RoleGuest, Active: true},
	}
	for _, u := range users {
		if err := store.Users().Create(context.Background(), u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	got, err := reg.RoleUsers(context.Background(), RoleStudent)
	if err != nil {
		t.Fatalf("RoleUsers failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 students, got %d", len(got))
	}

	if _, err := reg.RoleUsers(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown role, got %v", err)
	}
}

func TestRegistryPropagatesStoreErrors(t *testing.T) {
	dbErr := errors.New("connection lost")
	store := &stubStore{
		roles: &stubRoleStore{
			findFn: func(context.Context, string) (*Role, error) { return nil, dbErr },
		},
	}
	reg, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := reg.DeleteRole(context.Background(), "any"); !errors.Is(err, dbErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
