// Package scanner walks user-supplied paths, validates them against the
// module topology, and dispatches every source file through the per-file
// pipeline: imports -> structure -> matching -> aggregation.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/extract"
	"github.com/quietchord/uselens/internal/match"
	"github.com/quietchord/uselens/internal/metadata"
	"github.com/quietchord/uselens/internal/oracle"
)

var (
	// ErrInvalidScanPath indicates a path that matches no known module.
	ErrInvalidScanPath = errors.New("path matches no known module")

	// ErrFileAccess indicates a read or stat failure on a scanned path.
	ErrFileAccess = errors.New("file access failed")
)

// SourceExtension is the extension of files the per-file pipeline accepts.
const SourceExtension = ".swift"

// Config describes what to scan and what to skip.
type Config struct {
	Modules []buildgraph.Module

	// Exclusions are entry names skipped verbatim during directory walks
	// (e.g. "Pods", ".git").
	Exclusions []string

	// IgnorePatterns are glob patterns matched against slash-separated paths
	// relative to each scan root.
	IgnorePatterns []string
}

// Progress receives per-file notifications during a walk.
type Progress interface {
	FileScanned(path string)
}

type noopProgress struct{}

func (noopProgress) FileScanned(string) {}

// Stats summarizes one walk.
type Stats struct {
	FilesScanned  int
	FilesFailed   int
	PathsRejected int
	Candidates    int
	Matches       int
	Duration      time.Duration
}

// Scanner drives the walk and the per-file pipeline. File processing is
// sequential within a walk; the aggregator serializes writes regardless, so
// watch-mode rescans stay safe.
type Scanner struct {
	structural oracle.Structural
	matcher    *match.Matcher
	aggregator *metadata.Aggregator

	modules    []buildgraph.Module
	exclusions map[string]struct{}
	ignores    []glob.Glob
	progress   Progress

	imports *ImportGraph
}

// New creates a scanner. Progress may be nil.
func New(cfg Config, structural oracle.Structural, matcher *match.Matcher, aggregator *metadata.Aggregator, progress Progress) (*Scanner, error) {
	if progress == nil {
		progress = noopProgress{}
	}

	exclusions := make(map[string]struct{}, len(cfg.Exclusions))
	for _, name := range cfg.Exclusions {
		exclusions[name] = struct{}{}
	}

	ignores := make([]glob.Glob, 0, len(cfg.IgnorePatterns))
	for _, pattern := range cfg.IgnorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		ignores = append(ignores, g)
	}

	return &Scanner{
		structural: structural,
		matcher:    matcher,
		aggregator: aggregator,
		modules:    cfg.Modules,
		exclusions: exclusions,
		ignores:    ignores,
		progress:   progress,
		imports:    NewImportGraph(),
	}, nil
}

// Imports returns the module import graph accumulated so far.
func (s *Scanner) Imports() *ImportGraph {
	return s.imports
}

// Walk scans every root. Failures scoped to one path branch are logged and
// counted; siblings and other roots always continue.
func (s *Scanner) Walk(ctx context.Context, roots []string) *Stats {
	stats := &Stats{}
	start := time.Now()

	for _, root := range roots {
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil {
			log.Printf("Warning: %v: %s: %v", ErrFileAccess, root, err)
			stats.FilesFailed++
			continue
		}

		if info.IsDir() {
			s.walkDir(ctx, root, root, stats)
		} else {
			s.visitFile(ctx, root, stats)
		}
	}

	stats.Duration = time.Since(start)
	return stats
}

func (s *Scanner) walkDir(ctx context.Context, root, dir string, stats *Stats) {
	if ctx.Err() != nil {
		return
	}

	if !s.pathKnown(dir) {
		stats.PathsRejected++
		log.Printf("Warning: %v: %s", ErrInvalidScanPath, dir)
		log.Printf("Known module paths: %s", strings.Join(buildgraph.SourcePaths(s.modules), ", "))
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Warning: %v: %s: %v", ErrFileAccess, dir, err)
		stats.FilesFailed++
		return
	}

	// os.ReadDir sorts entries, which keeps scan output reproducible.
	for _, entry := range entries {
		name := entry.Name()
		if _, skip := s.exclusions[name]; skip {
			continue
		}

		path := filepath.Join(dir, name)
		if s.ignored(root, path) {
			continue
		}

		if entry.IsDir() {
			s.walkDir(ctx, root, path, stats)
		} else {
			s.visitFile(ctx, path, stats)
		}
	}
}

func (s *Scanner) visitFile(ctx context.Context, path string, stats *Stats) {
	if filepath.Ext(path) != SourceExtension {
		return
	}
	s.ScanFile(ctx, path, stats)
	s.progress.FileScanned(path)
}

// ScanFile runs the per-file pipeline: read content, extract imports, obtain
// the structural parse, match candidates, and aggregate the matches. Stages
// are strictly sequential for one file.
func (s *Scanner) ScanFile(ctx context.Context, path string, stats *Stats) {
	content, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: %v: %s: %v", ErrFileAccess, path, err)
		stats.FilesFailed++
		return
	}

	// Imports feed the module import graph. A syntax failure here is not
	// worth losing the file's usage data over.
	if tree, err := s.structural.SyntaxTree(ctx, path); err != nil {
		log.Printf("Warning: import extraction failed for %s: %v", path, err)
	} else if owner, ok := s.owningModule(path); ok {
		s.imports.AddFileImports(owner.Name, extract.Imports(tree))
	}

	root, err := s.structural.Structure(ctx, path)
	if err != nil {
		log.Printf("Warning: %v", err)
		stats.FilesFailed++
		return
	}

	candidates := extract.Flatten(root)
	matches := s.matcher.Resolve(candidates)
	for _, m := range matches {
		s.aggregator.Record(m, path, content)
	}

	stats.FilesScanned++
	stats.Candidates += len(candidates)
	stats.Matches += len(matches)
}

// pathKnown reports whether the path lies under, or contains, at least one
// known module source path. With no known modules nothing validates, which
// rejects all directory scans rather than silently matching everything.
func (s *Scanner) pathKnown(path string) bool {
	for _, mod := range s.modules {
		if mod.Owns(path) {
			return true
		}
		if path == mod.SourcePath ||
			strings.HasPrefix(mod.SourcePath, path+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (s *Scanner) owningModule(path string) (buildgraph.Module, bool) {
	for _, mod := range s.modules {
		if mod.Owns(path) {
			return mod, true
		}
	}
	return buildgraph.Module{}, false
}

func (s *Scanner) ignored(root, path string) bool {
	if len(s.ignores) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range s.ignores {
		if g.Match(rel) || g.Match(rel+"/**") {
			return true
		}
	}
	return false
}
