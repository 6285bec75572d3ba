package pg

import (
	"context"
	"database/sql"
	"errors"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/ids"
)

type permissionStore struct {
	db *sql.DB
}

const permissionColumns = `id, name, description, category, created_at`

// Ensure inserts any missing catalog entries; existing rows are left
// untouched so operator edits survive restarts.
func (s *permissionStore) Ensure(ctx context.Context, perms []auth.Permission) error {
	for _, p := range perms {
		id := p.ID
		if id == "" {
			id = ids.New()
		}
		if _, err := s.db.ExecContext(ctx, `
			insert into permissions (id, name, description, category)
			values ($1, $2, $3, $4)
			on conflict (name) do nothing
		`, id, p.Name, p.Description, p.Category); err != nil {
			return err
		}
	}
	return nil
}

func (s *permissionStore) Find(ctx context.Context, name string) (*auth.Permission, error) {
	var p auth.Permission
	err := s.db.QueryRowContext(ctx,
		`select `+permissionColumns+` from permissions where name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *permissionStore) List(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+permissionColumns+` from permissions order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []auth.Permission{}
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}
