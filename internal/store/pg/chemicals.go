package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/ids"
	"benchbook.org/internal/journal"
)

type chemicalStore struct {
	db *sql.DB
}

const chemicalColumns = `id, name, quantity, unit, unit_type, location, safety_data,
	expiration_date, supplier, notes, low_stock_alert, low_stock_threshold,
	created_at, updated_at, created_by`

// lowStockPredicate mirrors Chemical.LowStock: alert armed, threshold
// set, quantity at or below it.
const lowStockPredicate = `(low_stock_alert and low_stock_threshold is not null and quantity <= low_stock_threshold)`

func (s *chemicalStore) Create(ctx context.Context, c *journal.Chemical) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		insert into chemicals (id, name, quantity, unit, unit_type, location, safety_data,
			expiration_date, supplier, notes, low_stock_alert, low_stock_threshold,
			created_at, updated_at, created_by)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, c.ID, c.Name, c.Quantity, c.Unit, c.UnitType, c.Location, c.SafetyData,
		c.ExpirationDate, c.Supplier, c.Notes, c.LowStockAlert, c.LowStockThreshold,
		c.CreatedAt, c.UpdatedAt, c.CreatedBy)
	return err
}

func (s *chemicalStore) Find(ctx context.Context, id string) (*journal.Chemical, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+chemicalColumns+` from chemicals where id = $1`, id)
	c, err := scanChemical(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *chemicalStore) List(ctx context.Context, f journal.ChemicalFilter) ([]*journal.Chemical, error) {
	var (
		where []string
		args  []any
		idx   = 1
	)
	if f.Search != "" {
		where = append(where, fmt.Sprintf("(name ilike $%d or supplier ilike $%d or notes ilike $%d)", idx, idx, idx))
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	if f.Location != "" {
		where = append(where, fmt.Sprintf("location ilike $%d", idx))
		args = append(args, "%"+f.Location+"%")
		idx++
	}
	if f.UnitType != "" {
		where = append(where, fmt.Sprintf("unit_type = $%d", idx))
		args = append(args, f.UnitType)
		idx++
	}
	if f.LowStock {
		where = append(where, lowStockPredicate)
	}
	query := `select ` + chemicalColumns + ` from chemicals`
	if len(where) > 0 {
		query += ` where ` + strings.Join(where, " and ")
	}
	query += fmt.Sprintf(` order by created_at, id offset $%d limit $%d`, idx, idx+1)
	args = append(args, f.Skip, f.Limit)

	return s.queryChemicals(ctx, query, args...)
}

func (s *chemicalStore) Update(ctx context.Context, id string, upd journal.ChemicalUpdate) (*journal.Chemical, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)
	set := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}
	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Quantity != nil {
		set("quantity", *upd.Quantity)
	}
	if upd.Unit != nil {
		set("unit", *upd.Unit)
	}
	if upd.UnitType != nil {
		set("unit_type", *upd.UnitType)
	}
	if upd.Location != nil {
		set("location", *upd.Location)
	}
	if upd.SafetyData != nil {
		set("safety_data", *upd.SafetyData)
	}
	if upd.ExpirationDate != nil {
		set("expiration_date", upd.ExpirationDate.UTC())
	}
	if upd.Supplier != nil {
		set("supplier", *upd.Supplier)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}
	if upd.LowStockAlert != nil {
		set("low_stock_alert", *upd.LowStockAlert)
	}
	if upd.LowStockThreshold != nil {
		set("low_stock_threshold", *upd.LowStockThreshold)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update chemicals set %s where id = $%d`, strings.Join(sets, ", "), idx)
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
			return nil, journal.ErrNotFound
		}
	}
	return s.Find(ctx, id)
}

func (s *chemicalStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from chemicals where id = $1`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (s *chemicalStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from chemicals`).Scan(&n)
	return n, err
}

func (s *chemicalStore) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from chemicals where created_at >= $1`, since).Scan(&n)
	return n, err
}

func (s *chemicalStore) ListLowStock(ctx context.Context) ([]*journal.Chemical, error) {
	return s.queryChemicals(ctx,
		`select `+chemicalColumns+` from chemicals where `+lowStockPredicate+` order by name`)
}

func (s *chemicalStore) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]*journal.Chemical, error) {
	return s.queryChemicals(ctx, `
		select `+chemicalColumns+` from chemicals
		where expiration_date between $1 and $2
		order by expiration_date
	`, from, to)
}

func (s *chemicalStore) queryChemicals(ctx context.Context, query string, args ...any) ([]*journal.Chemical, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chems := []*journal.Chemical{}
	for rows.Next() {
		c, err := scanChemical(rows)
		if err != nil {
			return nil, err
		}
		chems = append(chems, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return chems, nil
}

func scanChemical(row rowScanner) (*journal.Chemical, error) {
	var (
		c         journal.Chemical
		expires   sql.NullTime
		threshold sql.NullFloat64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Quantity, &c.Unit, &c.UnitType, &c.Location,
		&c.SafetyData, &expires, &c.Supplier, &c.Notes, &c.LowStockAlert, &threshold,
		&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		c.ExpirationDate = &t
	}
	if threshold.Valid {
		v := threshold.Float64
		c.LowStockThreshold = &v
	}
	return &c, nil
}
