package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/scanner"
)

// SymbolRow is the flat stored form of one symbol record.
type SymbolRow struct {
	ID               string
	Key              string
	Name             string
	Kind             string
	LibraryName      string
	ThirdParty       bool
	TotalOccurrences int
}

// Reader loads persisted scan results.
type Reader struct {
	db *sql.DB
}

// NewReader creates a Reader over an opened scan database.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Modules returns the stored module topology, sorted by name.
func (r *Reader) Modules() ([]buildgraph.Module, error) {
	rows, err := sq.Select("name", "source_path", "manifest_path", "third_party").
		From("modules").
		OrderBy("name").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var modules []buildgraph.Module
	for rows.Next() {
		var m buildgraph.Module
		if err := rows.Scan(&m.Name, &m.SourcePath, &m.ManifestPath, &m.ThirdParty); err != nil {
			return nil, fmt.Errorf("scan module row: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// Symbols returns the stored symbol snapshot sorted by descending occurrence
// count, then key.
func (r *Reader) Symbols() ([]SymbolRow, error) {
	rows, err := sq.Select(
		"symbol_id", "symbol_key", "name", "kind",
		"library_name", "third_party", "total_occurrences",
	).
		From("symbols").
		OrderBy("total_occurrences DESC", "symbol_key").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []SymbolRow
	for rows.Next() {
		var s SymbolRow
		if err := rows.Scan(&s.ID, &s.Key, &s.Name, &s.Kind, &s.LibraryName, &s.ThirdParty, &s.TotalOccurrences); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// Imports returns the stored module import graph, sorted.
func (r *Reader) Imports() ([]scanner.ImportEdge, error) {
	rows, err := sq.Select("from_module", "to_module", "file_count").
		From("module_imports").
		OrderBy("from_module", "to_module").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("query module imports: %w", err)
	}
	defer rows.Close()

	var edges []scanner.ImportEdge
	for rows.Next() {
		var e scanner.ImportEdge
		if err := rows.Scan(&e.From, &e.To, &e.FileCount); err != nil {
			return nil, fmt.Errorf("scan import row: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
