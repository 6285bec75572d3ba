package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"benchbook.org/internal/ids"
	"benchbook.org/internal/journal"
)

type experimentStore struct {
	db *sql.DB
}

const experimentColumns = `id, title, date, description, procedure, chemicals_used,
	equipment_used, observations, results, conclusions, external_links,
	created_at, updated_at, created_by`

func (s *experimentStore) Create(ctx context.Context, e *journal.Experiment) error {
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	usages, err := json.Marshal(e.ChemicalsUsed)
	if err != nil {
		return fmt.Errorf("encode chemicals_used: %w", err)
	}
	equipment, err := json.Marshal(e.EquipmentUsed)
	if err != nil {
		return fmt.Errorf("encode equipment_used: %w", err)
	}
	links, err := json.Marshal(e.ExternalLinks)
	if err != nil {
		return fmt.Errorf("encode external_links: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		insert into experiments (id, title, date, description, procedure, chemicals_used,
			equipment_used, observations, results, conclusions, external_links,
			created_at, updated_at, created_by)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, e.ID, e.Title, e.Date, e.Description, e.Procedure, usages,
		equipment, e.Observations, e.Results, e.Conclusions, links,
		e.CreatedAt, e.UpdatedAt, e.CreatedBy)
	return err
}

func (s *experimentStore) Find(ctx context.Context, id string) (*journal.Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+experimentColumns+` from experiments where id = $1`, id)
	e, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *experimentStore) List(ctx context.Context, f journal.ExperimentFilter) ([]*journal.Experiment, error) {
	var (
		where []string
		args  []any
		idx   = 1
	)
	if f.Search != "" {
		where = append(where, fmt.Sprintf(
			"(title ilike $%d or description ilike $%d or procedure ilike $%d or observations ilike $%d or results ilike $%d)",
			idx, idx, idx, idx, idx))
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	if f.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", idx))
		args = append(args, f.DateFrom.UTC())
		idx++
	}
	if f.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", idx))
		args = append(args, f.DateTo.UTC())
		idx++
	}
	if f.CreatedBy != "" {
		where = append(where, fmt.Sprintf("created_by = $%d", idx))
		args = append(args, f.CreatedBy)
		idx++
	}
	query := `select ` + experimentColumns + ` from experiments`
	if len(where) > 0 {
		query += ` where ` + strings.Join(where, " and ")
	}
	query += fmt.Sprintf(` order by date desc, id offset $%d limit $%d`, idx, idx+1)
	args = append(args, f.Skip, f.Limit)

	return s.queryExperiments(ctx, query, args...)
}

func (s *experimentStore) Update(ctx context.Context, id string, upd journal.ExperimentUpdate) (*journal.Experiment, error) {
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
	setJSON := func(column string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", column, err)
		}
		set(column, raw)
		return nil
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Date != nil {
		set("date", upd.Date.UTC())
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Procedure != nil {
		set("procedure", *upd.Procedure)
	}
	if upd.ChemicalsUsed != nil {
		if err := setJSON("chemicals_used", *upd.ChemicalsUsed); err != nil {
			return nil, err
		}
	}
	if upd.EquipmentUsed != nil {
		if err := setJSON("equipment_used", *upd.EquipmentUsed); err != nil {
			return nil, err
		}
	}
	if upd.Observations != nil {
		set("observations", *upd.Observations)
	}
	if upd.Results != nil {
		set("results", *upd.Results)
	}
	if upd.Conclusions != nil {
		set("conclusions", *upd.Conclusions)
	}
	if upd.ExternalLinks != nil {
		if err := setJSON("external_links", *upd.ExternalLinks); err != nil {
			return nil, err
		}
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
		query := fmt.Sprintf(`update experiments set %s where id = $%d`, strings.Join(sets, ", "), idx)
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

func (s *experimentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from experiments where id = $1`, id)
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

func (s *experimentStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from experiments`).Scan(&n)
	return n, err
}

func (s *experimentStore) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from experiments where created_at >= $1`, since).Scan(&n)
	return n, err
}

func (s *experimentStore) ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]*journal.Experiment, error) {
	return s.queryExperiments(ctx, `
		select `+experimentColumns+` from experiments
		where created_by = $1
		order by created_at desc, id desc
		limit $2
	`, ownerID, limit)
}

func (s *experimentStore) queryExperiments(ctx context.Context, query string, args ...any) ([]*journal.Experiment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exps := []*journal.Experiment{}
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		exps = append(exps, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exps, nil
}

func scanExperiment(row rowScanner) (*journal.Experiment, error) {
	var (
		e         journal.Experiment
		usages    []byte
		equipment []byte
		links     []byte
	)
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Description, &e.Procedure, &usages,
		&equipment, &e.Observations, &e.Results, &e.Conclusions, &links,
		&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy)
	if err != nil {
		return nil, err
	}
	if err := decodeJSONColumn(usages, &e.ChemicalsUsed, "chemicals_used"); err != nil {
		return nil, err
	}
	if e.ChemicalsUsed == nil {
		e.ChemicalsUsed = []journal.ChemicalUsage{}
	}
	if err := decodeJSONColumn(equipment, &e.EquipmentUsed, "equipment_used"); err != nil {
		return nil, err
	}
	if e.EquipmentUsed == nil {
		e.EquipmentUsed = []string{}
	}
	if err := decodeJSONColumn(links, &e.ExternalLinks, "external_links"); err != nil {
		return nil, err
	}
	if e.ExternalLinks == nil {
		e.ExternalLinks = []string{}
	}
	return &e, nil
}

func decodeJSONColumn(raw []byte, dst any, column string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}
