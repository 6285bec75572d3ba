package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/journal"
)

const (
	pgErrUniqueViolation = "23505"
)

// Store is the Postgres persistence layer. It implements both the auth
// and the journal store contracts over a single connection pool.
type Store struct {
	db *sql.DB
}

var (
	_ auth.Store    = (*Store)(nil)
	_ journal.Store = (*Store)(nil)
)

// Open connects to Postgres through the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection, for tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() auth.UserStore             { return &userStore{db: s.db} }
func (s *Store) Roles() auth.RoleStore             { return &roleStore{db: s.db} }
func (s *Store) Permissions() auth.PermissionStore { return &permissionStore{db: s.db} }

func (s *Store) Chemicals() journal.ChemicalStore     { return &chemicalStore{db: s.db} }
func (s *Store) Experiments() journal.ExperimentStore { return &experimentStore{db: s.db} }

// --- helpers ---

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := maybePgError(err)
	return ok && pgErr.Code == pgErrUniqueViolation
}
