package journal

import (
	"context"
	"time"
)

// Store describes the persistence operations required by the journal
// service. Implementations map absent rows to ErrNotFound.
type Store interface {
	Chemicals() ChemicalStore
	Experiments() ExperimentStore
}

// ChemicalStore manages the chemical inventory. List applies the filter
// before pagination, so a low-stock listing paginates over matching rows
// only. ListLowStock returns every item whose alert fires, ordered by
// name; ListExpiringBetween returns items expiring inside [from, to],
// soonest first.
type ChemicalStore interface {
	Create(ctx context.Context, c *Chemical) error
	Find(ctx context.Context, id string) (*Chemical, error)
	List(ctx context.Context, f ChemicalFilter) ([]*Chemical, error)
	Update(ctx context.Context, id string, upd ChemicalUpdate) (*Chemical, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	ListLowStock(ctx context.Context) ([]*Chemical, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*Chemical, error)
}

// ExperimentStore manages journal entries. List orders by experiment
// date, newest first; ListRecentByOwner orders by creation time, newest
// first.
type ExperimentStore interface {
	Create(ctx context.Context, e *Experiment) error
	Find(ctx context.Context, id string) (*Experiment, error)
	List(ctx context.Context, f ExperimentFilter) ([]*Experiment, error)
	Update(ctx context.Context, id string, upd ExperimentUpdate) (*Experiment, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]*Experiment, error)
}
