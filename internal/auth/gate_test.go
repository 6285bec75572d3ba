package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestGate(t *testing.T) (*Gate, *TokenService, *MemStore) {
	t.Helper()
	store := seededMemStore(t)
	tokens, err := NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	gate, err := NewGate(tokens, store.Users(), NewDefaultResolver(store.Roles()))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return gate, tokens, store
}

func createUser(t *testing.T, store *MemStore, email, role string, active bool) *User {
	t.Helper()
	hash, err := HashPassword("password-1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &User{Email: email, PasswordHash: hash, Role: role, Active: active}
	if err := store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestGateAuthenticate(t *testing.T) {
	gate, tokens, store := newTestGate(t)
	user := createUser(t, store, "researcher@lab.com", RoleResearcher, true)
	raw, _, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := gate.Authenticate(context.Background(), raw)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if id.User.ID != user.ID {
		t.Fatalf("unexpected user: %q", id.User.ID)
	}
	if !id.HasPermission(PermWriteExperiments) {
		t.Fatal("researcher should hold write_experiments")
	}
	if id.HasPermission(PermManageUsers) {
		t.Fatal("researcher must not hold manage_users")
	}
}

func TestGateMissingToken(t *testing.T) {
	gate, _, _ := newTestGate(t)
	_, err := gate.Authenticate(context.Background(), "")
	wantAuthnReason(t, err, ReasonMissingToken)
}

func TestGateInvalidToken(t *testing.T) {
	gate, _, _ := newTestGate(t)
	_, err := gate.Authenticate(context.Background(), "not.a.token")
	wantAuthnReason(t, err, ReasonMalformed)
}

func TestGateUnknownSubject(t *testing.T) {
	gate, tokens, _ := newTestGate(t)
	raw, _, err := tokens.Issue("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = gate.Authenticate(context.Background(), raw)
	wantAuthnReason(t, err, ReasonUnknownOrInactive)
}

func TestGateInactiveUser(t *testing.T) {
	gate, tokens, store := newTestGate(t)
	user := createUser(t, store, "gone@lab.com", RoleGuest, false)
	raw, _, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = gate.Authenticate(context.Background(), raw)
	wantAuthnReason(t, err, ReasonUnknownOrInactive)
}

func TestGateDeactivationCutsAccess(t *testing.T) {
	gate, tokens, store := newTestGate(t)
	user := createUser(t, store, "soon-gone@lab.com", RoleGuest, true)
	raw, _, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := gate.Authenticate(context.Background(), raw); err != nil {
		t.Fatalf("expected success before deactivation: %v", err)
	}

	inactive := false
	if _, err := store.Users().Update(context.Background(), user.ID, UserUpdate{Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = gate.Authenticate(context.Background(), raw)
	wantAuthnReason(t, err, ReasonUnknownOrInactive)
}

func TestGateStaleRoleStillAuthenticates(t *testing.T) {
	gate, tokens, store := newTestGate(t)
	user := createUser(t, store, "orphan@lab.com", "deleted_role", true)
	raw, _, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := gate.Authenticate(context.Background(), raw)
	if err != nil {
		t.Fatalf("stale role must still authenticate: %v", err)
	}
	if len(id.Permissions()) != 0 {
		t.Fatalf("stale role must resolve to no permissions, got %v", id.Permissions())
	}
}

func TestRequirePredicate(t *testing.T) {
	id := NewIdentity(&User{ID: "u1"}, []string{PermReadChemicals, PermViewDashboard})

	if err := Require(PermReadChemicals)(id); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}

	err := Require(PermManageRoles)(id)
	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if authz.Permission != PermManageRoles {
		t.Fatalf("unexpected permission in error: %q", authz.Permission)
	}
}

func TestRequireNilIdentity(t *testing.T) {
	err := Require(PermReadChemicals)(nil)
	wantAuthnReason(t, err, ReasonMissingToken)
}

func TestRequireAny(t *testing.T) {
	id := NewIdentity(&User{ID: "u1"}, []string{PermReadUsers})

	if err := RequireAny(PermManageUsers, PermReadUsers)(id); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	var authz *AuthorizationError
	if err := RequireAny(PermManageUsers, PermManageRoles)(id); !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
}

func TestIdentityPermissionsSorted(t *testing.T) {
	id := NewIdentity(&User{ID: "u1"}, []string{"b", "a", "c", ""})
	got := id.Permissions()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("unexpected permissions: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestGateExpiredTokenAfterClockAdvance(t *testing.T) {
	store := seededMemStore(t)
	current := time.Now()
	tokens, err := NewTokenService("test-secret",
		WithAccessTTL(time.Minute),
		WithClock(func() time.Time { return current }),
	)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	gate, err := NewGate(tokens, store.Users(), NewDefaultResolver(store.Roles()))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	user := createUser(t, store, "late@lab.com", RoleGuest, true)
	raw, _, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	current = current.Add(time.Hour)
	_, err = gate.Authenticate(context.Background(), raw)
	wantAuthnReason(t, err, ReasonExpired)
}
