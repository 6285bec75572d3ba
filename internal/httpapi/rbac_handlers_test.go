package httpapi

import (
	"context"
	"net/http"
	"testing"

	"benchbook.org/internal/auth"
)

func TestRoleLifecycle(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	resp := c.post("/api/roles", admin, map[string]any{
		"name":         "lab_manager",
		"display_name": "Lab Manager",
		"description":  "Inventory curation without user administration",
		"permissions":  []string{auth.PermReadChemicals, auth.PermWriteChemicals},
	})
	wantStatus(t, resp, http.StatusCreated)
	if loc := resp.Header.Get("Location"); loc != "/api/roles/lab_manager" {
		t.Fatalf("Location = %q", loc)
	}
	role := decode[auth.Role](t, resp)
	if role.System {
		t.Fatal("custom roles must not be flagged as system roles")
	}

	resp = c.post("/api/roles", admin, map[string]any{"name": "lab_manager"})
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = c.post("/api/roles", admin, map[string]any{
		"name":        "broken",
		"permissions": []string{"fly_the_helicopter"},
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = c.put("/api/roles/lab_manager", admin, map[string]any{
		"permissions": []string{auth.PermReadChemicals},
	})
	wantStatus(t, resp, http.StatusOK)
	updated := decode[auth.Role](t, resp)
	if len(updated.Permissions) != 1 || updated.Permissions[0] != auth.PermReadChemicals {
		t.Fatalf("permissions after update = %v", updated.Permissions)
	}

	resp = c.get("/api/roles", admin)
	wantStatus(t, resp, http.StatusOK)
	roles := decode[[]auth.Role](t, resp)
	found := false
	for _, r := range roles {
		if r.Name == "lab_manager" {
			found = true
		}
	}
	if !found {
		t.Fatalf("role listing misses lab_manager: %+v", roles)
	}

	resp = c.del("/api/roles/lab_manager", admin)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.get("/api/roles/lab_manager", admin)
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestRoleDeleteBlockedWhileAssigned(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	resp := c.post("/api/roles", admin, map[string]any{
		"name":        "archivist",
		"permissions": []string{auth.PermReadExperiments},
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = c.post("/api/admin/users", admin, map[string]string{
		"email":    "keeper@lab.com",
		"password": "pw",
		"role":     "archivist",
	})
	wantStatus(t, resp, http.StatusCreated)
	user := decode[auth.User](t, resp)

	resp = c.del("/api/roles/archivist", admin)
	wantStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = c.get("/api/roles/archivist/users", admin)
	wantStatus(t, resp, http.StatusOK)
	members := decode[[]auth.User](t, resp)
	if len(members) != 1 || members[0].ID != user.ID {
		t.Fatalf("role members = %+v", members)
	}

	resp = c.del("/api/admin/users/"+user.ID, admin)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.del("/api/roles/archivist", admin)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
}

func TestListPermissionsRequiresManageRoles(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	resp := c.get("/api/permissions", admin)
	wantStatus(t, resp, http.StatusOK)
	perms := decode[[]auth.Permission](t, resp)
	if len(perms) != len(auth.BuiltinPermissions) {
		t.Fatalf("permission count = %d, want %d", len(perms), len(auth.BuiltinPermissions))
	}

	resp = c.post("/api/auth/register", "", map[string]string{
		"email":    "curious@lab.com",
		"password": "pw",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	guest := c.obtainToken("curious@lab.com", "pw")

	resp = c.get("/api/permissions", guest)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

// TestReconcileEndpoint orphans an account's role reference directly in
// the store, the state reconcile exists to find: the API itself refuses
// to delete a role that is still assigned.
func TestReconcileEndpoint(t *testing.T) {
	c, store := newTestAPIWithStore(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	resp := c.post("/api/admin/users", admin, map[string]string{
		"email":    "temp@lab.com",
		"password": "pw",
		"role":     "researcher",
	})
	wantStatus(t, resp, http.StatusCreated)
	user := decode[auth.User](t, resp)

	ghost := "dissolved_team"
	if _, err := store.Users().Update(context.Background(), user.ID, auth.UserUpdate{Role: &ghost}); err != nil {
		t.Fatalf("orphan role reference: %v", err)
	}

	resp = c.post("/api/admin/roles/reconcile", admin, nil)
	wantStatus(t, resp, http.StatusOK)
	report := decode[auth.ReconcileReport](t, resp)
	if report.Checked != 2 || len(report.Stale) != 1 || report.Stale[0].UserID != user.ID {
		t.Fatalf("dry run report = %+v", report)
	}
	if report.Reassigned != 0 {
		t.Fatalf("dry run reassigned %d accounts", report.Reassigned)
	}

	resp = c.post("/api/admin/roles/reconcile", admin, map[string]any{"apply": true})
	wantStatus(t, resp, http.StatusOK)
	if applied := decode[auth.ReconcileReport](t, resp); applied.Reassigned != 1 {
		t.Fatalf("apply report = %+v", applied)
	}

	fixed, err := store.Users().Find(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fixed.Role != auth.RoleGuest {
		t.Fatalf("role after apply = %q, want guest", fixed.Role)
	}
}
