// Package catalogstate persists the last successfully aliased version of
// every dataset in a small SQLite table, so a restarted replica can
// answer readiness and plan incremental updates without re-scanning the
// search backend's alias membership first.
package catalogstate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/sentryscreen/sentryscreen/migrations"
)

// DatasetState is one row of the dataset_state table.
type DatasetState struct {
	Dataset   string
	Version   string
	IndexName string
	UpdatedAt time.Time
}

// Store wraps the state database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the state database at path and applies pending
// migrations. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db %s: %w", path, err)
	}
	// modernc's driver serializes writes itself but not across pooled
	// connections; a single connection keeps the upsert path simple.
	db.SetMaxOpenConns(1)
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SetVersion upserts the state row for a dataset after a successful
// alias rollover.
func (s *Store) SetVersion(ctx context.Context, dataset, version, indexName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dataset_state (dataset, version, index_name, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(dataset) DO UPDATE SET
			version = excluded.version,
			index_name = excluded.index_name,
			updated_at = excluded.updated_at
	`, dataset, version, indexName, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record version for %s: %w", dataset, err)
	}
	return nil
}

// Version returns the last recorded version for dataset, or "" when the
// dataset has never been synced by this deployment.
func (s *Store) Version(ctx context.Context, dataset string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM dataset_state WHERE dataset = ?`, dataset).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read version for %s: %w", dataset, err)
	}
	return v, nil
}

// All returns every recorded dataset state, ordered by dataset name.
func (s *Store) All(ctx context.Context) ([]DatasetState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, version, index_name, updated_at FROM dataset_state ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("list dataset state: %w", err)
	}
	defer rows.Close()

	var out []DatasetState
	for rows.Next() {
		var st DatasetState
		var updated string
		if err := rows.Scan(&st.Dataset, &st.Version, &st.IndexName, &updated); err != nil {
			return nil, fmt.Errorf("scan dataset state: %w", err)
		}
		st.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, st)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
