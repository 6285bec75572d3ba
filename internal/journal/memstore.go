package journal

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"benchbook.org/internal/ids"
)

// MemStore is an in-memory Store. It backs tests and lets the API run
// without a database; ordering and filter semantics match the Postgres
// store.
type MemStore struct {
	mu          sync.RWMutex
	chemicals   map[string]*Chemical
	experiments map[string]*Experiment
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		chemicals:   make(map[string]*Chemical),
		experiments: make(map[string]*Experiment),
	}
}

func (s *MemStore) Chemicals() ChemicalStore     { return &memChemicals{s: s} }
func (s *MemStore) Experiments() ExperimentStore { return &memExperiments{s: s} }

// Chemical store -------------------------------------------------------------

type memChemicals struct{ s *MemStore }

func (m *memChemicals) Create(_ context.Context, c *Chemical) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	m.s.chemicals[c.ID] = cloneChemical(c)
	return nil
}

func (m *memChemicals) Find(_ context.Context, id string) (*Chemical, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.chemicals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneChemical(c), nil
}

func (m *memChemicals) List(_ context.Context, f ChemicalFilter) ([]*Chemical, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	matched := make([]*Chemical, 0, len(m.s.chemicals))
	for _, c := range m.s.chemicals {
		if !matchChemical(c, f) {
			continue
		}
		matched = append(matched, cloneChemical(c))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return paginate(matched, f.Skip, f.Limit), nil
}

func (m *memChemicals) Update(_ context.Context, id string, upd ChemicalUpdate) (*Chemical, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.chemicals[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Quantity != nil {
		c.Quantity = *upd.Quantity
	}
	if upd.Unit != nil {
		c.Unit = *upd.Unit
	}
	if upd.UnitType != nil {
		c.UnitType = *upd.UnitType
	}
	if upd.Location != nil {
		c.Location = *upd.Location
	}
	if upd.SafetyData != nil {
		c.SafetyData = *upd.SafetyData
	}
	if upd.ExpirationDate != nil {
		t := upd.ExpirationDate.UTC()
		c.ExpirationDate = &t
	}
	if upd.Supplier != nil {
		c.Supplier = *upd.Supplier
	}
	if upd.Notes != nil {
		c.Notes = *upd.Notes
	}
	if upd.LowStockAlert != nil {
		c.LowStockAlert = *upd.LowStockAlert
	}
	if upd.LowStockThreshold != nil {
		v := *upd.LowStockThreshold
		c.LowStockThreshold = &v
	}
	c.UpdatedAt = time.Now().UTC()
	return cloneChemical(c), nil
}

func (m *memChemicals) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.chemicals[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.chemicals, id)
	return nil
}

func (m *memChemicals) Count(_ context.Context) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return len(m.s.chemicals), nil
}

func (m *memChemicals) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, c := range m.s.chemicals {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memChemicals) ListLowStock(_ context.Context) ([]*Chemical, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*Chemical{}
	for _, c := range m.s.chemicals {
		if c.LowStock() {
			out = append(out, cloneChemical(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memChemicals) ListExpiringBetween(_ context.Context, from, to time.Time) ([]*Chemical, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*Chemical{}
	for _, c := range m.s.chemicals {
		if c.ExpirationDate == nil {
			continue
		}
		d := *c.ExpirationDate
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, cloneChemical(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpirationDate.Before(*out[j].ExpirationDate)
	})
	return out, nil
}

func matchChemical(c *Chemical, f ChemicalFilter) bool {
	if f.Search != "" &&
		!containsFold(c.Name, f.Search) &&
		!containsFold(c.Supplier, f.Search) &&
		!containsFold(c.Notes, f.Search) {
		return false
	}
	if f.Location != "" && !containsFold(c.Location, f.Location) {
		return false
	}
	if f.UnitType != "" && c.UnitType != f.UnitType {
		return false
	}
	if f.LowStock && !c.LowStock() {
		return false
	}
	return true
}

func cloneChemical(c *Chemical) *Chemical {
	cp := *c
	if c.ExpirationDate != nil {
		t := *c.ExpirationDate
		cp.ExpirationDate = &t
	}
	if c.LowStockThreshold != nil {
		v := *c.LowStockThreshold
		cp.LowStockThreshold = &v
	}
	return &cp
}

// Experiment store -----------------------------------------------------------

type memExperiments struct{ s *MemStore }

func (m *memExperiments) Create(_ context.Context, e *Experiment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	m.s.experiments[e.ID] = cloneExperiment(e)
	return nil
}

func (m *memExperiments) Find(_ context.Context, id string) (*Experiment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	e, ok := m.s.experiments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneExperiment(e), nil
}

func (m *memExperiments) List(_ context.Context, f ExperimentFilter) ([]*Experiment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	matched := make([]*Experiment, 0, len(m.s.experiments))
	for _, e := range m.s.experiments {
		if !matchExperiment(e, f) {
			continue
		}
		matched = append(matched, cloneExperiment(e))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.After(matched[j].Date)
	})
	return paginate(matched, f.Skip, f.Limit), nil
}

func (m *memExperiments) Update(_ context.Context, id string, upd ExperimentUpdate) (*Experiment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.experiments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Date != nil {
		e.Date = upd.Date.UTC()
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.Procedure != nil {
		e.Procedure = *upd.Procedure
	}
	if upd.ChemicalsUsed != nil {
		usages := make([]ChemicalUsage, len(*upd.ChemicalsUsed))
		copy(usages, *upd.ChemicalsUsed)
		e.ChemicalsUsed = usages
	}
	if upd.EquipmentUsed != nil {
		equipment := make([]string, len(*upd.EquipmentUsed))
		copy(equipment, *upd.EquipmentUsed)
		e.EquipmentUsed = equipment
	}
	if upd.Observations != nil {
		e.Observations = *upd.Observations
	}
	if upd.Results != nil {
		e.Results = *upd.Results
	}
	if upd.Conclusions != nil {
		e.Conclusions = *upd.Conclusions
	}
	if upd.ExternalLinks != nil {
		links := make([]string, len(*upd.ExternalLinks))
		copy(links, *upd.ExternalLinks)
		e.ExternalLinks = links
	}
	e.UpdatedAt = time.Now().UTC()
	return cloneExperiment(e), nil
}

func (m *memExperiments) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.experiments[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.experiments, id)
	return nil
}

func (m *memExperiments) Count(_ context.Context) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return len(m.s.experiments), nil
}

func (m *memExperiments) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	n := 0
	for _, e := range m.s.experiments {
		if !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memExperiments) ListRecentByOwner(_ context.Context, ownerID string, limit int) ([]*Experiment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*Experiment{}
	for _, e := range m.s.experiments {
		if e.CreatedBy == ownerID {
			out = append(out, cloneExperiment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchExperiment(e *Experiment, f ExperimentFilter) bool {
	if f.Search != "" &&
		!containsFold(e.Title, f.Search) &&
		!containsFold(e.Description, f.Search) &&
		!containsFold(e.Procedure, f.Search) &&
		!containsFold(e.Observations, f.Search) &&
		!containsFold(e.Results, f.Search) {
		return false
	}
	if f.DateFrom != nil && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Date.After(*f.DateTo) {
		return false
	}
	if f.CreatedBy != "" && e.CreatedBy != f.CreatedBy {
		return false
	}
	return true
}

func cloneExperiment(e *Experiment) *Experiment {
	cp := *e
	cp.ChemicalsUsed = make([]ChemicalUsage, len(e.ChemicalsUsed))
	copy(cp.ChemicalsUsed, e.ChemicalsUsed)
	cp.EquipmentUsed = make([]string, len(e.EquipmentUsed))
	copy(cp.EquipmentUsed, e.EquipmentUsed)
	cp.ExternalLinks = make([]string, len(e.ExternalLinks))
	copy(cp.ExternalLinks, e.ExternalLinks)
	return &cp
}

// Shared helpers -------------------------------------------------------------

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
