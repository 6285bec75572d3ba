package httpapi

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"benchbook.org/internal/journal"
)

func seedChemical(t *testing.T, c *apiClient, token string, body map[string]any) journal.Chemical {
	t.Helper()
	resp := c.post("/api/chemicals", token, body)
	wantStatus(t, resp, http.StatusCreated)
	return decode[journal.Chemical](t, resp)
}

func TestChemicalLifecycle(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	chem := seedChemical(t, c, admin, map[string]any{
		"name":      "Sodium Chloride",
		"quantity":  250,
		"unit":      "g",
		"unit_type": "weight",
		"location":  "Shelf 3",
		"supplier":  "Alfa",
	})

	resp := c.get("/api/chemicals/"+chem.ID, admin)
	wantStatus(t, resp, http.StatusOK)
	got := decode[journal.Chemical](t, resp)
	if got.Supplier != "Alfa" || got.UnitType != journal.UnitWeight {
		t.Fatalf("unexpected chemical: %+v", got)
	}

	resp = c.put("/api/chemicals/"+chem.ID, admin, map[string]any{"quantity": 100})
	wantStatus(t, resp, http.StatusOK)
	if updated := decode[journal.Chemical](t, resp); updated.Quantity != 100 {
		t.Fatalf("quantity = %v, want 100", updated.Quantity)
	}

	resp = c.post("/api/chemicals", admin, map[string]any{
		"name": "Mystery", "quantity": 1, "unit": "x",
		"unit_type": "imaginary", "location": "nowhere",
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = c.del("/api/chemicals/"+chem.ID, admin)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.get("/api/chemicals/"+chem.ID, admin)
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestChemicalListFiltering(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	seedChemical(t, c, admin, map[string]any{
		"name": "Hydrochloric Acid", "quantity": 900, "unit": "ml",
		"unit_type": "volume", "location": "Acid Cabinet",
	})
	seedChemical(t, c, admin, map[string]any{
		"name": "Sodium Hydroxide", "quantity": 2, "unit": "g",
		"unit_type": "weight", "location": "Shelf 1",
		"low_stock_alert": true, "low_stock_threshold": 10,
	})

	resp := c.get("/api/chemicals?search=acid", admin)
	wantStatus(t, resp, http.StatusOK)
	byName := decode[[]journal.Chemical](t, resp)
	if len(byName) != 1 || byName[0].Name != "Hydrochloric Acid" {
		t.Fatalf("search=acid returned %+v", byName)
	}

	resp = c.get("/api/chemicals?low_stock=true", admin)
	wantStatus(t, resp, http.StatusOK)
	low := decode[[]journal.Chemical](t, resp)
	if len(low) != 1 || low[0].Name != "Sodium Hydroxide" {
		t.Fatalf("low_stock filter returned %+v", low)
	}

	resp = c.get("/api/chemicals?unit_type=volume", admin)
	wantStatus(t, resp, http.StatusOK)
	if vols := decode[[]journal.Chemical](t, resp); len(vols) != 1 {
		t.Fatalf("unit_type filter returned %d items, want 1", len(vols))
	}

	resp = c.get("/api/chemicals?skip=bogus", admin)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestExperimentOwnership(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	for _, email := range []string{"ada@lab.com", "grace@lab.com"} {
		resp := c.post("/api/admin/users", admin, map[string]string{
			"email": email, "password": "pw", "role": "researcher",
		})
		wantStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}
	ada := c.obtainToken("ada@lab.com", "pw")
	grace := c.obtainToken("grace@lab.com", "pw")

	resp := c.post("/api/experiments", ada, map[string]any{
		"title":     "Titration baseline",
		"procedure": "Slow drip with stirring",
		"chemicals_used": []map[string]any{
			{"chemical_id": "chem-1", "quantity_used": 25, "unit": "ml"},
		},
		"equipment_used": []string{"burette"},
	})
	wantStatus(t, resp, http.StatusCreated)
	exp := decode[journal.Experiment](t, resp)

	// Another researcher can read it but cannot touch it.
	resp = c.get("/api/experiments/"+exp.ID, grace)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.put("/api/experiments/"+exp.ID, grace, map[string]any{"title": "Stolen"})
	wantStatus(t, resp, http.StatusForbidden)
	body := decode[map[string]any](t, resp)
	if body["error"] != "not authorized to update this experiment" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}

	resp = c.del("/api/experiments/"+exp.ID, grace)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// The author and the system admin both can.
	resp = c.put("/api/experiments/"+exp.ID, ada, map[string]any{"results": "pH 7.01"})
	wantStatus(t, resp, http.StatusOK)
	if updated := decode[journal.Experiment](t, resp); updated.Results != "pH 7.01" {
		t.Fatalf("results = %q, want %q", updated.Results, "pH 7.01")
	}

	resp = c.put("/api/experiments/"+exp.ID, admin, map[string]any{"conclusions": "Reproducible"})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = c.del("/api/experiments/"+exp.ID, ada)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = c.get("/api/experiments/"+exp.ID, ada)
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestExperimentListFiltering(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	dates := []string{"2026-08-01", "2026-08-10", "2026-08-20"}
	for i, d := range dates {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatalf("parse date: %v", err)
		}
		resp := c.post("/api/experiments", admin, map[string]any{
			"title": fmt.Sprintf("Run %d", i+1),
			"date":  day.Format(time.RFC3339),
		})
		wantStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}

	resp := c.get("/api/experiments?date_from=2026-08-05&date_to=2026-08-15", admin)
	wantStatus(t, resp, http.StatusOK)
	window := decode[[]journal.Experiment](t, resp)
	if len(window) != 1 || window[0].Title != "Run 2" {
		t.Fatalf("date window returned %+v", window)
	}

	resp = c.get("/api/experiments?search=run", admin)
	wantStatus(t, resp, http.StatusOK)
	if all := decode[[]journal.Experiment](t, resp); len(all) != 3 {
		t.Fatalf("search returned %d items, want 3", len(all))
	}

	resp = c.get("/api/experiments?date_from=yesterday", admin)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestAvailableChemicals(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	seedChemical(t, c, admin, map[string]any{
		"name": "Ethanol", "quantity": 500, "unit": "ml",
		"unit_type": "volume", "location": "Cabinet A",
	})
	seedChemical(t, c, admin, map[string]any{
		"name": "Spent Reagent", "quantity": 0, "unit": "g",
		"unit_type": "weight", "location": "Waste",
	})

	resp := c.get("/api/experiments/chemicals/available", admin)
	wantStatus(t, resp, http.StatusOK)
	available := decode[[]journal.AvailableChemical](t, resp)
	if len(available) != 1 || available[0].Name != "Ethanol" {
		t.Fatalf("available list = %+v, want only the in-stock item", available)
	}
}

func TestDashboardStats(t *testing.T) {
	c := newTestAPI(t)
	admin := c.obtainToken(adminEmail, adminPassword)

	seedChemical(t, c, admin, map[string]any{
		"name": "Acetone", "quantity": 1, "unit": "l",
		"unit_type": "volume", "location": "Cabinet B",
		"low_stock_alert": true, "low_stock_threshold": 5,
	})
	expiring := time.Now().UTC().Add(10 * 24 * time.Hour).Format(time.RFC3339)
	seedChemical(t, c, admin, map[string]any{
		"name": "Old Buffer", "quantity": 100, "unit": "ml",
		"unit_type": "volume", "location": "Fridge",
		"expiration_date": expiring,
	})
	resp := c.post("/api/experiments", admin, map[string]any{"title": "Calibration"})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = c.get("/api/dashboard/stats", admin)
	wantStatus(t, resp, http.StatusOK)
	stats := decode[dashboardResponse](t, resp)
	if stats.TotalChemicals != 2 || stats.TotalExperiments != 1 {
		t.Fatalf("totals = %d/%d, want 2/1", stats.TotalChemicals, stats.TotalExperiments)
	}
	if stats.LowStockCount != 1 || stats.ExpiringSoonCount != 1 {
		t.Fatalf("alert counts = %d/%d, want 1/1", stats.LowStockCount, stats.ExpiringSoonCount)
	}
	if stats.TotalUsers != 1 {
		t.Fatalf("total users = %d, want 1", stats.TotalUsers)
	}
	if len(stats.UserRecentExperiments) != 1 {
		t.Fatalf("recent experiments = %d, want 1", len(stats.UserRecentExperiments))
	}

	// The dashboard needs its own permission; a fresh guest still has it.
	resp = c.post("/api/auth/register", "", map[string]string{
		"email": "peek@lab.com", "password": "pw",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	guest := c.obtainToken("peek@lab.com", "pw")
	resp = c.get("/api/dashboard/stats", guest)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
