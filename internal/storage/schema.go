// Package storage persists scan results to SQLite: the module topology,
// aggregated symbol records with their locations, the observed module import
// graph, and per-run statistics for diffing across runs.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the scan database at path and ensures the schema
// exists. Foreign keys are enabled per connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CreateSchema creates all tables and indexes. All statements run in one
// transaction: the schema exists entirely or not at all.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"modules", createModulesTable},
		{"symbols", createSymbolsTable},
		{"symbol_locations", createSymbolLocationsTable},
		{"module_imports", createModuleImportsTable},
		{"scan_runs", createScanRunsTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

const createModulesTable = `
CREATE TABLE IF NOT EXISTS modules (
	name          TEXT PRIMARY KEY,
	source_path   TEXT NOT NULL,
	manifest_path TEXT NOT NULL,
	third_party   INTEGER NOT NULL DEFAULT 0
)`

const createSymbolsTable = `
CREATE TABLE IF NOT EXISTS symbols (
	symbol_id         TEXT PRIMARY KEY,
	symbol_key        TEXT NOT NULL UNIQUE,
	name              TEXT NOT NULL,
	kind              TEXT NOT NULL,
	library_name      TEXT NOT NULL,
	third_party       INTEGER NOT NULL DEFAULT 0,
	is_self_declared  INTEGER NOT NULL DEFAULT 0,
	design_systems    TEXT NOT NULL DEFAULT '',
	design_docs       TEXT,
	total_occurrences INTEGER NOT NULL DEFAULT 0,
	recorded_at       TEXT NOT NULL
)`

const createSymbolLocationsTable = `
CREATE TABLE IF NOT EXISTS symbol_locations (
	location_id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol_id     TEXT NOT NULL REFERENCES symbols(symbol_id) ON DELETE CASCADE,
	file_path     TEXT NOT NULL,
	line_number   INTEGER NOT NULL,
	column_number INTEGER NOT NULL,
	byte_offset   INTEGER NOT NULL
)`

const createModuleImportsTable = `
CREATE TABLE IF NOT EXISTS module_imports (
	from_module TEXT NOT NULL,
	to_module   TEXT NOT NULL,
	file_count  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (from_module, to_module)
)`

const createScanRunsTable = `
CREATE TABLE IF NOT EXISTS scan_runs (
	run_id        TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	files_scanned INTEGER NOT NULL,
	files_failed  INTEGER NOT NULL,
	matches       INTEGER NOT NULL
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_symbols_library ON symbols(library_name)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_symbol ON symbol_locations(symbol_id)`,
	`CREATE INDEX IF NOT EXISTS idx_locations_file ON symbol_locations(file_path)`,
}
