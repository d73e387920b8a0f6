// Package store persists conversion runs: one row per converted workbook
// with its outcome and diagnostics, so filers can revisit past reports.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sustainix/sustainix/internal/convert"
)

// ErrNotFound is returned when a conversion run does not exist.
var ErrNotFound = errors.New("conversion not found")

// Run is one persisted conversion.
type Run struct {
	ID          uuid.UUID         `json:"id"`
	FileName    string            `json:"fileName"`
	Entity      string            `json:"entity"`
	PeriodEnd   time.Time         `json:"periodEnd"`
	Taxonomy    string            `json:"taxonomy"`
	FactCount   int               `json:"factCount"`
	Success     bool              `json:"success"`
	Diagnostics []convert.Message `json:"diagnostics,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Store reads and writes conversion runs in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS conversion_runs (
	id          UUID PRIMARY KEY,
	file_name   TEXT NOT NULL,
	entity      TEXT NOT NULL,
	period_end  DATE,
	taxonomy    TEXT NOT NULL,
	fact_count  INTEGER NOT NULL,
	success     BOOLEAN NOT NULL,
	diagnostics JSONB NOT NULL DEFAULT '[]',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversion_runs_created_at_idx
	ON conversion_runs (created_at DESC);
`

// EnsureSchema creates the conversion_runs table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure conversion schema: %w", err)
	}
	return nil
}

// Record persists one conversion run.
func (s *Store) Record(ctx context.Context, run Run) error {
	diags, err := json.Marshal(run.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversion_runs
			(id, file_name, entity, period_end, taxonomy, fact_count, success, diagnostics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.FileName, run.Entity, run.PeriodEnd, run.Taxonomy,
		run.FactCount, run.Success, diags, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("record conversion %s: %w", run.ID, err)
	}
	return nil
}

// Get returns one conversion run by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, file_name, entity, period_end, taxonomy, fact_count, success, diagnostics, created_at
		FROM conversion_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get conversion %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent conversion runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_name, entity, period_end, taxonomy, fact_count, success, diagnostics, created_at
		FROM conversion_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversions: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list conversions: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a conversion run.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversion_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversion %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	var diags []byte
	err := row.Scan(&run.ID, &run.FileName, &run.Entity, &run.PeriodEnd,
		&run.Taxonomy, &run.FactCount, &run.Success, &diags, &run.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	if len(diags) > 0 {
		if err := json.Unmarshal(diags, &run.Diagnostics); err != nil {
			return Run{}, fmt.Errorf("decode diagnostics: %w", err)
		}
	}
	return run, nil
}
