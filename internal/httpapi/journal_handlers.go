package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"benchbook.org/internal/audit"
	"benchbook.org/internal/auth"
	"benchbook.org/internal/journal"
)

type dashboardResponse struct {
	journal.Stats
	TotalUsers int `json:"total_users"`
}

func (a *API) handleListChemicals(w http.ResponseWriter, r *http.Request) {
	f := journal.ChemicalFilter{
		Search:   r.URL.Query().Get("search"),
		Location: r.URL.Query().Get("location"),
		UnitType: journal.UnitType(r.URL.Query().Get("unit_type")),
	}
	var err error
	if f.Skip, err = queryInt(r, "skip", 0); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if f.Limit, err = queryInt(r, "limit", 100); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if f.LowStock, err = queryBool(r, "low_stock"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	chemicals, err := a.journal.ListChemicals(r.Context(), f)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chemicals)
}

func (a *API) handleCreateChemical(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	var in journal.ChemicalInput
	if err := a.decodeJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	chem, err := a.journal.CreateChemical(r.Context(), identity.User.ID, in)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "chemical.create", map[string]any{
		"chemical_id": chem.ID,
		"name":        chem.Name,
	})
	w.Header().Set("Location", "/api/chemicals/"+chem.ID)
	writeJSON(w, http.StatusCreated, chem)
}

func (a *API) handleGetChemical(w http.ResponseWriter, r *http.Request) {
	chem, err := a.journal.GetChemical(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chem)
}

func (a *API) handleUpdateChemical(w http.ResponseWriter, r *http.Request) {
	var upd journal.ChemicalUpdate
	if err := a.decodeJSON(r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	chem, err := a.journal.UpdateChemical(r.Context(), id, upd)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "chemical.update", map[string]any{"chemical_id": id})
	writeJSON(w, http.StatusOK, chem)
}

func (a *API) handleDeleteChemical(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.journal.DeleteChemical(r.Context(), id); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "chemical.delete", map[string]any{"chemical_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAvailableChemicals(w http.ResponseWriter, r *http.Request) {
	available, err := a.journal.AvailableChemicals(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, available)
}

func (a *API) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	f := journal.ExperimentFilter{
		Search:    r.URL.Query().Get("search"),
		CreatedBy: r.URL.Query().Get("created_by"),
	}
	var err error
	if f.Skip, err = queryInt(r, "skip", 0); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if f.Limit, err = queryInt(r, "limit", 100); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if f.DateFrom, err = queryTime(r, "date_from"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if f.DateTo, err = queryTime(r, "date_to"); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	experiments, err := a.journal.ListExperiments(r.Context(), f)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, experiments)
}

func (a *API) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	var in journal.ExperimentInput
	if err := a.decodeJSON(r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	exp, err := a.journal.CreateExperiment(r.Context(), identity.User.ID, in)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "experiment.create", map[string]any{
		"experiment_id": exp.ID,
		"title":         exp.Title,
	})
	w.Header().Set("Location", "/api/experiments/"+exp.ID)
	writeJSON(w, http.StatusCreated, exp)
}

func (a *API) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := a.journal.GetExperiment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// handleUpdateExperiment lets the author edit their own entries; holders
// of the system admin permission can edit anyone's.
func (a *API) handleUpdateExperiment(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	exp, err := a.journal.GetExperiment(r.Context(), id)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	if !exp.OwnedBy(identity.User.ID) && !identity.HasPermission(auth.PermSystemAdmin) {
		writeError(w, r, http.StatusForbidden, "not authorized to update this experiment")
		return
	}
	var upd journal.ExperimentUpdate
	if err := a.decodeJSON(r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.journal.UpdateExperiment(r.Context(), id, upd)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "experiment.update", map[string]any{"experiment_id": id})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	exp, err := a.journal.GetExperiment(r.Context(), id)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	if !exp.OwnedBy(identity.User.ID) && !identity.HasPermission(auth.PermSystemAdmin) {
		writeError(w, r, http.StatusForbidden, "not authorized to delete this experiment")
		return
	}
	if err := a.journal.DeleteExperiment(r.Context(), id); err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "experiment.delete", map[string]any{"experiment_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	identity, err := mustIdentity(r)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	stats, err := a.journal.Stats(r.Context(), identity.User.ID)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	totalUsers, err := a.accounts.CountUsers(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Stats: *stats, TotalUsers: totalUsers})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &queryError{name: name, want: "an integer"}
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &queryError{name: name, want: "a boolean"}
	}
	return b, nil
}

// queryTime accepts RFC3339 timestamps and plain dates.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, &queryError{name: name, want: "an RFC 3339 timestamp or YYYY-MM-DD date"}
}

type queryError struct {
	name string
	want string
}

func (e *queryError) Error() string {
	return "query parameter " + e.name + " must be " + e.want
}
