// Package store indexes sweep runs and their records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"ising-mc/internal/experiment"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("store: run not found")

// Run describes one stored sweep.
type Run struct {
	ID            string
	CreatedAt     time.Time
	Mode          string
	Shape         string
	Seed          int64
	Equilibration int
	Sampling      int
	Blocks        int
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string { return uuid.NewString() }

// Store wraps a SQLite database holding runs and records.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			mode TEXT NOT NULL,
			shape TEXT NOT NULL,
			seed INTEGER NOT NULL,
			equilibration INTEGER NOT NULL,
			sampling INTEGER NOT NULL,
			blocks INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			point INTEGER NOT NULL,
			temperature REAL NOT NULL,
			field REAL NOT NULL,
			anisotropy REAL NOT NULL,
			energy REAL NOT NULL,
			energy_std REAL NOT NULL,
			entropy REAL NOT NULL,
			entropy_std REAL NOT NULL,
			free_energy REAL NOT NULL,
			free_energy_std REAL NOT NULL,
			heat_capacity REAL NOT NULL,
			heat_capacity_std REAL NOT NULL,
			magnetization REAL NOT NULL,
			magnetization_std REAL NOT NULL,
			alignment REAL NOT NULL,
			alignment_std REAL NOT NULL,
			acceptance REAL NOT NULL,
			PRIMARY KEY (run_id, point)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores run and its records in one transaction. An empty run.ID is
// filled with NewRunID; the id used is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, recs []experiment.Record) (id string, err error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, mode, shape, seed, equilibration, sampling, blocks) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Mode, run.Shape, run.Seed, run.Equilibration, run.Sampling, run.Blocks,
	); err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (
		run_id, point, temperature, field, anisotropy,
		energy, energy_std, entropy, entropy_std, free_energy, free_energy_std,
		heat_capacity, heat_capacity_std, magnetization, magnetization_std,
		alignment, alignment_std, acceptance
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, r := range recs {
		if _, err = stmt.ExecContext(ctx,
			run.ID, r.Point, r.Temperature, r.Field, r.Anisotropy,
			r.Energy.Mean, r.Energy.StdDev, r.Entropy.Mean, r.Entropy.StdDev,
			r.FreeEnergy.Mean, r.FreeEnergy.StdDev, r.HeatCapacity.Mean, r.HeatCapacity.StdDev,
			r.Magnetization.Mean, r.Magnetization.StdDev, r.Alignment.Mean, r.Alignment.StdDev,
			r.Acceptance,
		); err != nil {
			return "", fmt.Errorf("store: insert record for point %d: %w", r.Point, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, mode, shape, seed, equilibration, sampling, blocks FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Mode, &r.Shape, &r.Seed, &r.Equilibration, &r.Sampling, &r.Blocks); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Records returns the records of a run in sweep order. Points that never
// completed leave gaps in Record.Point.
func (s *Store) Records(ctx context.Context, runID string) ([]experiment.Record, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		point, temperature, field, anisotropy,
		energy, energy_std, entropy, entropy_std, free_energy, free_energy_std,
		heat_capacity, heat_capacity_std, magnetization, magnetization_std,
		alignment, alignment_std, acceptance
		FROM records WHERE run_id = ? ORDER BY point`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []experiment.Record
	for rows.Next() {
		var r experiment.Record
		if err := rows.Scan(
			&r.Point, &r.Temperature, &r.Field, &r.Anisotropy,
			&r.Energy.Mean, &r.Energy.StdDev, &r.Entropy.Mean, &r.Entropy.StdDev,
			&r.FreeEnergy.Mean, &r.FreeEnergy.StdDev, &r.HeatCapacity.Mean, &r.HeatCapacity.StdDev,
			&r.Magnetization.Mean, &r.Magnetization.StdDev, &r.Alignment.Mean, &r.Alignment.StdDev,
			&r.Acceptance,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
