package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// Store persists variants and finalized runs in an embedded SQLite
// database. Records are stored as JSON payloads keyed by ID; run rows are
// immutable once written.
type Store struct {
	db *sql.DB
}

// Verify interface compliance
var (
	_ repositories.VariantRepository = (*Store)(nil)
	_ repositories.RunRepository     = (*Store)(nil)
)

// NewStore opens (and if needed creates) the database at path
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "allocengine.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS variants (
		id TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create variants table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		variant_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		finished_at TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// GetVariant returns one variant by ID
func (s *Store) GetVariant(ctx context.Context, id entities.VariantID) (*entities.Variant, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM variants WHERE id = ?`, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("variant %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select variant: %w", err)
	}
	var variant entities.Variant
	if err := json.Unmarshal(payload, &variant); err != nil {
		return nil, fmt.Errorf("decode variant %s: %w", id, err)
	}
	return &variant, nil
}

// ListVariants returns all variants, most recently updated first
func (s *Store) ListVariants(ctx context.Context) ([]*entities.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM variants ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select variants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var variants []*entities.Variant
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		var variant entities.Variant
		if err := json.Unmarshal(payload, &variant); err != nil {
			return nil, fmt.Errorf("decode variant: %w", err)
		}
		variants = append(variants, &variant)
	}
	return variants, rows.Err()
}

// SaveVariant upserts a variant snapshot
func (s *Store) SaveVariant(ctx context.Context, variant *entities.Variant) error {
	payload, err := json.Marshal(variant)
	if err != nil {
		return fmt.Errorf("encode variant %s: %w", variant.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO variants (id, status, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, payload = excluded.payload, updated_at = excluded.updated_at`,
		string(variant.ID), int(variant.Status), payload, variant.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		return fmt.Errorf("save variant %s: %w", variant.ID, err)
	}
	return nil
}

// GetRun returns one run by ID
func (s *Store) GetRun(ctx context.Context, id entities.RunID) (*entities.AllocationRun, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}
	var run entities.AllocationRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns all runs, most recently finished first
func (s *Store) ListRuns(ctx context.Context) ([]*entities.AllocationRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY finished_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*entities.AllocationRun
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run entities.AllocationRun
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// SaveRun inserts a finalized run. Runs are immutable; a duplicate ID is
// an error, never an overwrite.
func (s *Store) SaveRun(ctx context.Context, run *entities.AllocationRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (id, variant_id, payload, finished_at) VALUES (?, ?, ?, ?)`,
		string(run.ID), string(run.VariantID), payload, run.FinishedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}
