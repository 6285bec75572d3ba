package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/ids"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	recentWindow = 7 * 24 * time.Hour
	expiryWindow = 30 * 24 * time.Hour
	statsTopN    = 5
)

// Service implements the journal operations over a Store. Ownership
// rules for experiments are enforced by the transport layer; the service
// only records who created what.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a journal service over the given store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("journal: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Chemicals ------------------------------------------------------------------

// CreateChemical validates and records a new inventory item owned by
// actorID.
func (s *Service) CreateChemical(ctx context.Context, actorID string, in ChemicalInput) (*Chemical, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Location = strings.TrimSpace(in.Location)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Unit == "" {
		return nil, fmt.Errorf("%w: unit is required", ErrInvalidInput)
	}
	if in.Location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if !in.UnitType.Valid() {
		return nil, fmt.Errorf("%w: unit type must be weight, volume or amount", ErrInvalidInput)
	}

	now := s.now().UTC()
	chem := &Chemical{
		ID:                ids.New(),
		Name:              in.Name,
		Quantity:          in.Quantity,
		Unit:              in.Unit,
		UnitType:          in.UnitType,
		Location:          in.Location,
		SafetyData:        in.SafetyData,
		ExpirationDate:    in.ExpirationDate,
		Supplier:          in.Supplier,
		Notes:             in.Notes,
		LowStockAlert:     in.LowStockAlert,
		LowStockThreshold: in.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
		CreatedBy:         actorID,
	}
	if err := s.store.Chemicals().Create(ctx, chem); err != nil {
		return nil, err
	}
	return chem, nil
}

// GetChemical returns one inventory item.
func (s *Service) GetChemical(ctx context.Context, id string) (*Chemical, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: chemical id is required", ErrInvalidInput)
	}
	return s.store.Chemicals().Find(ctx, id)
}

// ListChemicals returns inventory items matching the filter.
func (s *Service) ListChemicals(ctx context.Context, f ChemicalFilter) ([]*Chemical, error) {
	f.Limit = clampLimit(f.Limit)
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.UnitType != "" && !f.UnitType.Valid() {
		return nil, fmt.Errorf("%w: unit type must be weight, volume or amount", ErrInvalidInput)
	}
	return s.store.Chemicals().List(ctx, f)
}

// UpdateChemical applies a partial update.
func (s *Service) UpdateChemical(ctx context.Context, id string, upd ChemicalUpdate) (*Chemical, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: chemical id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Unit != nil && strings.TrimSpace(*upd.Unit) == "" {
		return nil, fmt.Errorf("%w: unit cannot be empty", ErrInvalidInput)
	}
	if upd.Location != nil && strings.TrimSpace(*upd.Location) == "" {
		return nil, fmt.Errorf("%w: location cannot be empty", ErrInvalidInput)
	}
	if upd.UnitType != nil && !upd.UnitType.Valid() {
		return nil, fmt.Errorf("%w: unit type must be weight, volume or amount", ErrInvalidInput)
	}
	return s.store.Chemicals().Update(ctx, id, upd)
}

// DeleteChemical removes an inventory item.
func (s *Service) DeleteChemical(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: chemical id is required", ErrInvalidInput)
	}
	return s.store.Chemicals().Delete(ctx, id)
}

// AvailableChemicals returns the stock view used when composing an
// experiment: id, name and what is left of each chemical. Depleted items
// are omitted.
func (s *Service) AvailableChemicals(ctx context.Context) ([]AvailableChemical, error) {
	chems, err := s.store.Chemicals().List(ctx, ChemicalFilter{Limit: maxListLimit})
	if err != nil {
		return nil, err
	}
	out := make([]AvailableChemical, 0, len(chems))
	for _, c := range chems {
		if c.Quantity <= 0 {
			continue
		}
		out = append(out, AvailableChemical{ID: c.ID, Name: c.Name, Quantity: c.Quantity, Unit: c.Unit})
	}
	return out, nil
}

// Experiments ----------------------------------------------------------------

// CreateExperiment validates and records a new journal entry owned by
// actorID. A missing date defaults to now.
func (s *Service) CreateExperiment(ctx context.Context, actorID string, in ExperimentInput) (*Experiment, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if err := checkUsages(in.ChemicalsUsed); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}
	exp := &Experiment{
		ID:            ids.New(),
		Title:         in.Title,
		Date:          date,
		Description:   in.Description,
		Procedure:     in.Procedure,
		ChemicalsUsed: usagesOrEmpty(in.ChemicalsUsed),
		EquipmentUsed: stringsOrEmpty(in.EquipmentUsed),
		Observations:  in.Observations,
		Results:       in.Results,
		Conclusions:   in.Conclusions,
		ExternalLinks: stringsOrEmpty(in.ExternalLinks),
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     actorID,
	}
	if err := s.store.Experiments().Create(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// GetExperiment returns one journal entry.
func (s *Service) GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: experiment id is required", ErrInvalidInput)
	}
	return s.store.Experiments().Find(ctx, id)
}

// ListExperiments returns journal entries matching the filter, newest
// experiment date first.
func (s *Service) ListExperiments(ctx context.Context, f ExperimentFilter) ([]*Experiment, error) {
	f.Limit = clampLimit(f.Limit)
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.store.Experiments().List(ctx, f)
}

// UpdateExperiment applies a partial update.
func (s *Service) UpdateExperiment(ctx context.Context, id string, upd ExperimentUpdate) (*Experiment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: experiment id is required", ErrInvalidInput)
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		upd.Title = &title
	}
	if upd.ChemicalsUsed != nil {
		if err := checkUsages(*upd.ChemicalsUsed); err != nil {
			return nil, err
		}
	}
	return s.store.Experiments().Update(ctx, id, upd)
}

// DeleteExperiment removes a journal entry.
func (s *Service) DeleteExperiment(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: experiment id is required", ErrInvalidInput)
	}
	return s.store.Experiments().Delete(ctx, id)
}

// Stats ----------------------------------------------------------------------

// Stats assembles the dashboard summary. userID scopes the recent
// experiment list to the caller.
func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	now := s.now().UTC()
	chems := s.store.Chemicals()
	exps := s.store.Experiments()

	totalChemicals, err := chems.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalExperiments, err := exps.Count(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := chems.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	expiring, err := chems.ListExpiringBetween(ctx, now, now.Add(expiryWindow))
	if err != nil {
		return nil, err
	}
	recentChemicals, err := chems.CountCreatedSince(ctx, now.Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	recentExperiments, err := exps.CountCreatedSince(ctx, now.Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	mine, err := exps.ListRecentByOwner(ctx, userID, statsTopN)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalChemicals:        totalChemicals,
		TotalExperiments:      totalExperiments,
		LowStockCount:         len(lowStock),
		ExpiringSoonCount:     len(expiring),
		RecentChemicals:       recentChemicals,
		RecentExperiments:     recentExperiments,
		LowStockChemicals:     topChemicals(lowStock, statsTopN),
		ExpiringChemicals:     topChemicals(expiring, statsTopN),
		UserRecentExperiments: experimentsOrEmpty(mine),
	}, nil
}

// Helpers --------------------------------------------------------------------

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return defaultListLimit
	}
	return limit
}

func checkUsages(usages []ChemicalUsage) error {
	for _, u := range usages {
		if strings.TrimSpace(u.ChemicalID) == "" {
			return fmt.Errorf("%w: chemical usage needs a chemical id", ErrInvalidInput)
		}
	}
	return nil
}

func topChemicals(chems []*Chemical, n int) []*Chemical {
	if len(chems) > n {
		chems = chems[:n]
	}
	if chems == nil {
		chems = []*Chemical{}
	}
	return chems
}

func experimentsOrEmpty(exps []*Experiment) []*Experiment {
	if exps == nil {
		return []*Experiment{}
	}
	return exps
}

func usagesOrEmpty(usages []ChemicalUsage) []ChemicalUsage {
	if usages == nil {
		return []ChemicalUsage{}
	}
	return usages
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
