package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/ids"
)

type roleStore struct {
	db *sql.DB
}

const roleColumns = `id, name, display_name, description, permissions, is_system, created_at, updated_at`

func (s *roleStore) Create(ctx context.Context, role *auth.Role) error {
	if role.ID == "" {
		role.ID = ids.New()
	}
	if role.CreatedAt.IsZero() {
		role.CreatedAt = time.Now().UTC()
	}
	if role.UpdatedAt.IsZero() {
		role.UpdatedAt = role.CreatedAt
	}
	perms, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into roles (id, name, display_name, description, permissions, is_system, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, role.ID, role.Name, role.DisplayName, role.Description, perms, role.System, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: role %q already exists", auth.ErrConflict, role.Name)
		}
		return err
	}
	return nil
}

func (s *roleStore) Find(ctx context.Context, name string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where name = $1`, name)
	role, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *roleStore) List(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+roleColumns+` from roles order by created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []*auth.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *roleStore) Update(ctx context.Context, name string, upd auth.RoleUpdate) (*auth.Role, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.DisplayName != nil {
		sets = append(sets, fmt.Sprintf("display_name = $%d", idx))
		args = append(args, *upd.DisplayName)
		idx++
	}
	if upd.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, *upd.Description)
		idx++
	}
	if upd.Permissions != nil {
		perms, err := json.Marshal(*upd.Permissions)
		if err != nil {
			return nil, fmt.Errorf("encode permissions: %w", err)
		}
		sets = append(sets, fmt.Sprintf("permissions = $%d", idx))
		args = append(args, perms)
		idx++
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update roles set %s where name = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, name)
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		aff, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if aff == 0 {
			return nil, auth.ErrNotFound
		}
	}
	return s.Find(ctx, name)
}

func (s *roleStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `delete from roles where name = $1`, name)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*auth.Role, error) {
	var (
		role     auth.Role
		permsRaw []byte
	)
	err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description,
		&permsRaw, &role.System, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, err
	}
	role.Permissions = []string{}
	if len(permsRaw) > 0 {
		if err := json.Unmarshal(permsRaw, &role.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions: %w", err)
		}
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return &role, nil
}
