package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"benchbook.org/internal/obs"
)

// ReadyProbe reports whether the service's dependencies are reachable.
// With no database configured the probe always passes.
type ReadyProbe struct {
	DB *sql.DB
}

func (p ReadyProbe) Check(ctx context.Context) error {
	if p.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.DB.PingContext(ctx)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "benchbook-api",
		"version": a.version,
	})
}

// SetDraining marks the service not ready ahead of shutdown so load
// balancers stop routing to it while in-flight requests drain.
func (a *API) SetDraining() {
	a.draining.Store(true)
	obs.SetReady(false)
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "draining"})
		return
	}
	if err := a.ready.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "benchbook-api",
		"version": a.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
