package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/auth"
	"benchbook.org/internal/ids"
)

type userStore struct {
	db *sql.DB
}

const userColumns = `id, email, password_hash, role, is_active, created_at`

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, email, password_hash, role, is_active, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.PasswordHash, u.Role, u.Active, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", auth.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return s.findBy(ctx, `id = $1`, id)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findBy(ctx, `email = $1`, email)
}

func (s *userStore) findBy(ctx context.Context, where string, arg any) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where `+where, arg,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) List(ctx context.Context) ([]*auth.User, error) {
	return s.listWhere(ctx, ``, nil)
}

func (s *userStore) ListByRole(ctx context.Context, role string) ([]*auth.User, error) {
	return s.listWhere(ctx, `where role = $1`, []any{role})
}

func (s *userStore) listWhere(ctx context.Context, where string, args []any) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users `+where+` order by created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*auth.User{}
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}

func (s *userStore) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from users where role = $1`, role).Scan(&n)
	return n, err
}

func (s *userStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	if upd.Role != nil {
		sets = append(sets, fmt.Sprintf("role = $%d", idx))
		args = append(args, *upd.Role)
		idx++
	}
	if upd.Active != nil {
		sets = append(sets, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *upd.Active)
		idx++
	}
	if upd.Password != nil {
		sets = append(sets, fmt.Sprintf("password_hash = $%d", idx))
		args = append(args, *upd.Password)
		idx++
	}
	if len(sets) > 0 {
		query := fmt.Sprintf(`update users set %s where id = $%d`, strings.Join(sets, ", "), idx)
		args = append(args, id)
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
	return s.Find(ctx, id)
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
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
