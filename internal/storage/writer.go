package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/metadata"
	"github.com/quietchord/uselens/internal/scanner"
)

// Writer persists one scan's results. Snapshot writes replace previous state
// for the same keys; history accumulates in scan_runs.
type Writer struct {
	db *sql.DB
}

// NewWriter creates a Writer. The schema must already exist (Open handles
// that).
func NewWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// WriteModules replaces the stored module topology.
func (w *Writer) WriteModules(modules []buildgraph.Module) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM modules"); err != nil {
		return fmt.Errorf("clear modules: %w", err)
	}

	for _, m := range modules {
		_, err := sq.Insert("modules").
			Columns("name", "source_path", "manifest_path", "third_party").
			Values(m.Name, m.SourcePath, m.ManifestPath, m.ThirdParty).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("write module %s: %w", m.Name, err)
		}
	}

	return tx.Commit()
}

// WriteRecords replaces the stored symbol snapshot with the given records.
// Locations cascade-delete with their symbols.
func (w *Writer) WriteRecords(records []*metadata.Record) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM symbols"); err != nil {
		return fmt.Errorf("clear symbols: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		key := metadata.Key(rec.LibraryName, rec.Name, rec.Type)

		_, err := sq.Insert("symbols").
			Columns(
				"symbol_id", "symbol_key", "name", "kind", "library_name",
				"third_party", "is_self_declared", "design_systems",
				"design_docs", "total_occurrences", "recorded_at",
			).
			Values(
				rec.ID, key, rec.Name, rec.Type, rec.LibraryName,
				rec.ThirdParty, rec.IsSelfDeclared, strings.Join(rec.DesignSystems, ","),
				rec.DesignDocs, rec.TotalOccurrences, now,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("write symbol %s: %w", key, err)
		}

		for filePath, locations := range rec.FilewiseLocations {
			for _, loc := range locations {
				_, err := sq.Insert("symbol_locations").
					Columns("symbol_id", "file_path", "line_number", "column_number", "byte_offset").
					Values(rec.ID, filePath, loc.Line, loc.Column, loc.Offset).
					RunWith(tx).
					Exec()
				if err != nil {
					return fmt.Errorf("write location for %s: %w", key, err)
				}
			}
		}
	}

	return tx.Commit()
}

// WriteImports replaces the stored module import graph.
func (w *Writer) WriteImports(edges []scanner.ImportEdge) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM module_imports"); err != nil {
		return fmt.Errorf("clear module imports: %w", err)
	}

	for _, e := range edges {
		_, err := sq.Insert("module_imports").
			Columns("from_module", "to_module", "file_count").
			Values(e.From, e.To, e.FileCount).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("write import %s->%s: %w", e.From, e.To, err)
		}
	}

	return tx.Commit()
}

// WriteRun appends one run's statistics to the history.
func (w *Writer) WriteRun(runID string, startedAt time.Time, stats *scanner.Stats) error {
	_, err := sq.Insert("scan_runs").
		Columns("run_id", "started_at", "duration_ms", "files_scanned", "files_failed", "matches").
		Values(
			runID,
			startedAt.UTC().Format(time.RFC3339),
			stats.Duration.Milliseconds(),
			stats.FilesScanned,
			stats.FilesFailed,
			stats.Matches,
		).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("write scan run: %w", err)
	}
	return nil
}
