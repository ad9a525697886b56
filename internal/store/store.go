// Package store provides the durable build archive: every archived
// pipeline run is recorded with its source, configuration snapshot and
// emitted graph document, so past outputs can be listed and re-read
// without re-running the pipeline.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed archive of pipeline builds.
// Uses WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the archive database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing archive.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Build is one archived pipeline run.
type Build struct {
	ID        string
	CreatedAt time.Time
	Source    string
	Config    string
	NodeCount int
	Graph     []byte
}

// Save archives a build. The id must be unique; UUIDv7 ids from the
// emitted document satisfy that and keep rows in creation order.
func (s *Store) Save(ctx context.Context, b Build) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, created_at, source, config, node_count, graph)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.CreatedAt.UTC().Format(time.RFC3339), b.Source, b.Config, b.NodeCount, b.Graph)
	if err != nil {
		return fmt.Errorf("saving build %s: %w", b.ID, err)
	}
	return nil
}

// Get returns one archived build by id.
func (s *Store) Get(ctx context.Context, id string) (*Build, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, config, node_count, graph
		 FROM builds WHERE id = ?`, id)

	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading build %s: %w", id, err)
	}
	return b, nil
}

// List returns archived builds, newest first.
// The ORDER BY includes id as a deterministic tiebreaker.
func (s *Store) List(ctx context.Context) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, config, node_count, graph
		 FROM builds ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning build: %w", err)
		}
		builds = append(builds, *b)
	}
	return builds, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(sc scanner) (*Build, error) {
	var b Build
	var createdAt string
	if err := sc.Scan(&b.ID, &createdAt, &b.Source, &b.Config, &b.NodeCount, &b.Graph); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	b.CreatedAt = t
	return &b, nil
}
