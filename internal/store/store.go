// Package store records finished builds in a SQLite manifest: which modules
// went into an output file, in what order, and what each one required.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the build manifest.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all manifest tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS builds (
  id              INTEGER PRIMARY KEY,
  root_path       TEXT NOT NULL,
  output_path     TEXT NOT NULL,
  working_dir     TEXT NOT NULL,
  output_hash     TEXT NOT NULL,
  module_count    INTEGER NOT NULL,
  built_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS modules (
  id              INTEGER PRIMARY KEY,
  build_id        INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
  path            TEXT NOT NULL,
  name            TEXT NOT NULL,
  position        INTEGER NOT NULL,
  content_hash    TEXT NOT NULL,
  is_root         BOOLEAN NOT NULL DEFAULT FALSE,
  UNIQUE (build_id, path)
);

CREATE TABLE IF NOT EXISTS module_requires (
  module_id       INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  required_path   TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS namespaces (
  module_id       INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  active          BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS native_modules (
  module_id       INTEGER NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_builds_built_at ON builds(built_at);
CREATE INDEX IF NOT EXISTS idx_modules_build ON modules(build_id, position);
CREATE INDEX IF NOT EXISTS idx_module_requires_module ON module_requires(module_id);
CREATE INDEX IF NOT EXISTS idx_namespaces_module ON namespaces(module_id);
CREATE INDEX IF NOT EXISTS idx_native_modules_module ON native_modules(module_id);
`
