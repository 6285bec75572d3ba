package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                     "/",
		"/metrics":                             "/metrics",
		"/healthz":                             "/healthz",
		"/api/chemicals":                       "/api/chemicals",
		"/api/chemicals/01J9ZJ4V":              "/api/chemicals/:id",
		"/api/chemicals/01J9ZJ4V?fields=name":  "/api/chemicals/:id",
		"/api/experiments/01J9ZJ4V":            "/api/experiments/:id",
		"/api/experiments/chemicals/available": "/api/experiments/chemicals/available",
		"/api/roles/lab_manager":               "/api/roles/:name",
		"/api/roles/lab_manager/users":         "/api/roles/:name/users",
		"/api/admin/users/01J9ZJ4V":            "/api/admin/users/:id",
		"/api/admin/roles/reconcile":           "/api/admin/roles/reconcile",
		"/api/dashboard/stats":                 "/api/dashboard/stats",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestObserveAuthAttempt(t *testing.T) {
	before := testutil.ToFloat64(authAttemptsTotal.WithLabelValues("expired"))
	ObserveAuthAttempt("expired")
	ObserveAuthAttempt("expired")
	after := testutil.ToFloat64(authAttemptsTotal.WithLabelValues("expired"))
	if after-before != 2 {
		t.Fatalf("counter delta = %v, want 2", after-before)
	}
}

func TestSetReady(t *testing.T) {
	SetReady(true)
	if got := testutil.ToFloat64(readyState); got != 1 {
		t.Fatalf("service_ready = %v, want 1", got)
	}
	SetReady(false)
	if got := testutil.ToFloat64(readyState); got != 0 {
		t.Fatalf("service_ready = %v, want 0", got)
	}
}
