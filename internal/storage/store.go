// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/opbench/internal/benchmark"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("sweep not found")
	ErrNilSweep = errors.New("sweep result is nil")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS sweeps (
	id          TEXT PRIMARY KEY,
	group_name  TEXT NOT NULL,
	option      TEXT NOT NULL DEFAULT '',
	params      TEXT,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	canceled    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sweeps_group ON sweeps(group_name, started_at DESC);

CREATE TABLE IF NOT EXISTS series (
	sweep_id  TEXT NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
	run_index INTEGER NOT NULL,
	run       TEXT NOT NULL,
	PRIMARY KEY (sweep_id, run_index)
);

CREATE TABLE IF NOT EXISTS points (
	sweep_id   TEXT NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
	run_index  INTEGER NOT NULL,
	seq        INTEGER NOT NULL,
	step       INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	elapsed_ns INTEGER NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (sweep_id, run_index, seq)
);
`

// =============================================================================
// STORE
// =============================================================================

// SweepMeta summarizes a stored sweep.
type SweepMeta struct {
	ID         string    `json:"id"`
	Group      string    `json:"group"`
	Option     string    `json:"option,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Canceled   bool      `json:"canceled,omitempty"`
	Runs       int       `json:"runs"`
	Points     int       `json:"points"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	// Group matches the full group name.
	Group string
	// Limit caps the number of rows; <= 0 means no limit.
	Limit int
}

// Store is the sweep history database.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns ~/.opbench/history.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".opbench", "history.db")
	}
	return filepath.Join(home, ".opbench", "history.db")
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores r, assigning a new ID when r.ID is empty. Saving an existing
// ID replaces the stored sweep.
func (s *Store) Save(ctx context.Context, r *benchmark.SweepResult) error {
	if r == nil {
		return ErrNilSweep
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	var params sql.NullString
	if r.Params != nil {
		data, err := json.Marshal(r.Params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		params = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSweep(ctx, tx, r.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sweeps (id, group_name, option, params, started_at, finished_at, canceled)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Group, r.Option, params, toUnix(r.StartedAt), toUnix(r.FinishedAt), r.Canceled)
	if err != nil {
		return fmt.Errorf("failed to insert sweep: %w", err)
	}

	seriesStmt, err := tx.PrepareContext(ctx, `INSERT INTO series (sweep_id, run_index, run) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare series insert: %w", err)
	}
	defer seriesStmt.Close()

	pointStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (sweep_id, run_index, seq, step, size, elapsed_ns, error) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer pointStmt.Close()

	for i, series := range r.Series {
		if _, err := seriesStmt.ExecContext(ctx, r.ID, i, series.Run); err != nil {
			return fmt.Errorf("failed to insert series %q: %w", series.Run, err)
		}
		for seq, p := range series.Points {
			if _, err := pointStmt.ExecContext(ctx, r.ID, i, seq, p.Step, p.Size, int64(p.Elapsed), p.Error); err != nil {
				return fmt.Errorf("failed to insert point: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sweep: %w", err)
	}
	return nil
}

// Get loads a sweep by ID. Params come back as decoded JSON values.
func (s *Store) Get(ctx context.Context, id string) (*benchmark.SweepResult, error) {
	r := &benchmark.SweepResult{ID: id}
	var (
		params            sql.NullString
		started, finished int64
		canceled          bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT group_name, option, params, started_at, finished_at, canceled FROM sweeps WHERE id = ?`, id).
		Scan(&r.Group, &r.Option, &params, &started, &finished, &canceled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep: %w", err)
	}
	r.StartedAt = fromUnix(started)
	r.FinishedAt = fromUnix(finished)
	r.Canceled = canceled
	if params.Valid {
		if err := json.Unmarshal([]byte(params.String), &r.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params: %w", err)
		}
	}

	if err := s.loadSeries(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) loadSeries(ctx context.Context, r *benchmark.SweepResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run FROM series WHERE sweep_id = ? ORDER BY run_index`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load series: %w", err)
	}
	r.Series = []benchmark.Series{}
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan series: %w", err)
		}
		r.Series = append(r.Series, benchmark.Series{Run: run, Points: []benchmark.ChartDataPoint{}})
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT run_index, step, size, elapsed_ns, error FROM points WHERE sweep_id = ? ORDER BY run_index, seq`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to load points: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			idx     int
			p       benchmark.ChartDataPoint
			elapsed int64
		)
		if err := rows.Scan(&idx, &p.Step, &p.Size, &elapsed, &p.Error); err != nil {
			return fmt.Errorf("failed to scan point: %w", err)
		}
		if idx < 0 || idx >= len(r.Series) {
			continue
		}
		p.Elapsed = time.Duration(elapsed)
		r.Series[idx].Points = append(r.Series[idx].Points, p)
	}
	return rows.Err()
}

// List returns sweep summaries, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]SweepMeta, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.group_name, s.option, s.started_at, s.finished_at, s.canceled,
		       (SELECT COUNT(*) FROM series se WHERE se.sweep_id = s.id),
		       (SELECT COUNT(*) FROM points p WHERE p.sweep_id = s.id)
		FROM sweeps s
		WHERE ? = '' OR s.group_name = ?
		ORDER BY s.started_at DESC, s.id
		LIMIT ?`, filter.Group, filter.Group, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	defer rows.Close()

	metas := []SweepMeta{}
	for rows.Next() {
		var (
			m                 SweepMeta
			started, finished int64
		)
		if err := rows.Scan(&m.ID, &m.Group, &m.Option, &started, &finished, &m.Canceled, &m.Runs, &m.Points); err != nil {
			return nil, fmt.Errorf("failed to scan sweep: %w", err)
		}
		m.StartedAt = fromUnix(started)
		m.FinishedAt = fromUnix(finished)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Latest returns the most recent completed sweep of group with option.
func (s *Store) Latest(ctx context.Context, group, option string) (*benchmark.SweepResult, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sweeps
		WHERE group_name = ? AND option = ? AND canceled = 0
		ORDER BY started_at DESC LIMIT 1`, group, option).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no completed sweep for %q option %q", ErrNotFound, group, option)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest sweep: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a sweep and its points.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sweeps WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up sweep: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := deleteSweep(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSweep(ctx context.Context, tx *sql.Tx, id string) error {
	for _, q := range []string{
		`DELETE FROM points WHERE sweep_id = ?`,
		`DELETE FROM series WHERE sweep_id = ?`,
		`DELETE FROM sweeps WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete sweep %s: %w", id, err)
		}
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
