package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is recorded in the metadata table by Migrate.
const SchemaVersion = "2"

// Store is the SQLite data access layer for pyscope's tables.
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

// DB returns the underlying *sql.DB for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes and records SchemaVersion.
// Idempotent. A database written under another schema version is emptied
// first; its files are reindexed from scratch.
func (s *Store) Migrate() error {
	if old := s.storedSchemaVersion(); old != "" && old != SchemaVersion {
		if err := s.dropTables(); err != nil {
			return fmt.Errorf("migrate from schema %s: %w", old, err)
		}
	}
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := s.SetMetadata("schema_version", SchemaVersion); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) storedSchemaVersion() string {
	var v string
	// A fresh database has no metadata table yet.
	_ = s.db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&v)
	return v
}

func (s *Store) dropTables() error {
	for _, table := range []string{"definitions", "symbols", "imports", "snapshots", "scopes", "files"} {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id                INTEGER PRIMARY KEY,
  path              TEXT NOT NULL UNIQUE,
  module            TEXT NOT NULL DEFAULT '',
  hash              TEXT NOT NULL,
  size              INTEGER NOT NULL DEFAULT 0,
  line_count        INTEGER NOT NULL DEFAULT 0,
  has_syntax_errors BOOLEAN NOT NULL DEFAULT FALSE,
  last_indexed      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scopes (
  id                INTEGER PRIMARY KEY,
  file_id           INTEGER NOT NULL REFERENCES files(id),
  scope_index       INTEGER NOT NULL,
  parent_scope_id   INTEGER REFERENCES scopes(id),
  kind              TEXT NOT NULL,
  node_kind         TEXT NOT NULL,
  name              TEXT NOT NULL,
  start_offset      INTEGER,
  end_offset        INTEGER,
  start_line        INTEGER,
  start_col         INTEGER,
  end_line          INTEGER,
  end_col           INTEGER,
  region_start_offset INTEGER,
  region_end_offset   INTEGER,
  region_start_line   INTEGER,
  region_start_col    INTEGER,
  region_end_line     INTEGER,
  region_end_col      INTEGER,
  descendants_start INTEGER NOT NULL,
  descendants_end   INTEGER NOT NULL,
  UNIQUE (file_id, scope_index)
);

CREATE TABLE IF NOT EXISTS symbols (
  id                INTEGER PRIMARY KEY,
  file_id           INTEGER NOT NULL REFERENCES files(id),
  scope_id          INTEGER NOT NULL REFERENCES scopes(id),
  symbol_index      INTEGER NOT NULL,
  name              TEXT NOT NULL,
  flags             TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS definitions (
  id                INTEGER PRIMARY KEY,
  symbol_id         INTEGER NOT NULL REFERENCES symbols(id),
  ordinal           INTEGER NOT NULL,
  kind              TEXT NOT NULL,
  local_id          INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
  id                INTEGER PRIMARY KEY,
  file_id           INTEGER NOT NULL REFERENCES files(id),
  scope_id          INTEGER NOT NULL REFERENCES scopes(id),
  module            TEXT NOT NULL,
  name              TEXT NOT NULL,
  bound_name        TEXT NOT NULL,
  level             INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshots (
  file_id           INTEGER PRIMARY KEY REFERENCES files(id),
  schema            INTEGER NOT NULL,
  data              BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key               TEXT PRIMARY KEY,
  value             TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scopes_file ON scopes(file_id);
CREATE INDEX IF NOT EXISTS idx_scopes_parent ON scopes(parent_scope_id);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_scope ON symbols(scope_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_definitions_symbol ON definitions(symbol_id);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_module ON imports(module);
CREATE INDEX IF NOT EXISTS idx_files_module ON files(module);
`

// DeleteFileData transactionally removes every row derived from a file,
// leaving the files row itself. Deletes in reverse-dependency order to
// respect FK constraints.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM definitions WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)",
		"DELETE FROM symbols WHERE file_id = ?",
		"DELETE FROM imports WHERE file_id = ?",
		"DELETE FROM snapshots WHERE file_id = ?",
		"DELETE FROM scopes WHERE file_id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete file data: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteFile removes a file and all its derived rows.
func (s *Store) DeleteFile(fileID int64) error {
	if err := s.DeleteFileData(fileID); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM files WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}
