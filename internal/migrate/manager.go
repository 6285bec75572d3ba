// Package migrate applies plain-SQL schema migrations tracked in a
// bookkeeping table. Files are ordered by name; each .up.sql needs a
// matching .down.sql next to it for rollback.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultTable = "schema_migrations"

// Manager executes SQL migration files stored on disk.
type Manager struct {
	db    *sql.DB
	dir   string
	table string
}

// Option configures a Manager.
type Option func(*Manager)

// WithTable overrides the default bookkeeping table.
func WithTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.table = name
		}
	}
}

// NewManager constructs a Manager over the given migrations directory.
func NewManager(db *sql.DB, dir string, opts ...Option) *Manager {
	m := &Manager{db: db, dir: dir, table: defaultTable}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Up applies all pending migrations in name order.
func (m *Manager) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	files, err := collectSQL(m.dir, ".up.sql")
	if err != nil {
		return err
	}
	for _, mig := range files {
		if applied[mig.base] {
			continue
		}
		if err := m.execFile(ctx, mig.path); err != nil {
			return fmt.Errorf("apply migration %s: %w", mig.base, err)
		}
		if err := m.record(ctx, mig.base); err != nil {
			return err
		}
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Manager) Down(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	history, err := m.history(ctx)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return errors.New("no migrations applied")
	}
	last := history[len(history)-1]
	downPath := strings.TrimSuffix(filepath.Join(m.dir, last), ".up.sql") + ".down.sql"
	if _, err := os.Stat(downPath); err != nil {
		return fmt.Errorf("missing down migration for %s", last)
	}
	if err := m.execFile(ctx, downPath); err != nil {
		return fmt.Errorf("rollback migration %s: %w", last, err)
	}
	_, err = m.db.ExecContext(ctx, fmt.Sprintf(`delete from %s where name = $1`, m.table), last)
	return err
}

// Status returns the applied migrations in application order.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	return m.history(ctx)
}

func (m *Manager) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		);`, m.table)
	_, err := m.db.ExecContext(ctx, ddl)
	return err
}

// execFile runs every statement in the file inside one transaction.
func (m *Manager) execFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(raw)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (m *Manager) record(ctx context.Context, name string) error {
	_, err := m.db.ExecContext(ctx,
		fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, m.table),
		name, time.Now().UTC())
	return err
}

func (m *Manager) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, m.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (m *Manager) history(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s order by applied_at`, m.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var history []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		history = append(history, name)
	}
	return history, rows.Err()
}

type sqlFile struct {
	base string
	path string
}

func collectSQL(dir, suffix string) ([]sqlFile, error) {
	if dir == "" {
		return nil, nil
	}
	var files []sqlFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), suffix) {
			files = append(files, sqlFile{base: d.Name(), path: path})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].base < files[j].base })
	return files, nil
}

// splitStatements splits on semicolons outside single-quoted strings. Good
// enough for the migration files in this repo; dollar-quoted bodies are
// not supported.
func splitStatements(script string) []string {
	var stmts []string
	var current strings.Builder
	inString := false
	for _, r := range script {
		current.WriteRune(r)
		switch r {
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				stmts = append(stmts, current.String())
				current.Reset()
			}
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}
