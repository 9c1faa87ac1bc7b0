package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/oracle"
)

// buildConcurrency bounds the number of in-flight completion invocations.
// The oracle is CPU-heavy; more than a handful buys nothing.
const buildConcurrency = 4

// sourceExtension is the file extension of scannable source files.
const sourceExtension = ".swift"

// Builder populates a catalog by querying the completion oracle once per
// module. Modules are processed independently and in parallel; a failed
// module is logged and skipped without blocking the rest.
type Builder struct {
	completer oracle.Completer
	modules   []buildgraph.Module
}

// NewBuilder creates a builder over the given module topology.
func NewBuilder(completer oracle.Completer, modules []buildgraph.Module) *Builder {
	return &Builder{completer: completer, modules: modules}
}

// Build queries every module concurrently and assembles the catalog in
// topology order, so first-match-wins behavior is reproducible across runs.
func (b *Builder) Build(ctx context.Context) *Catalog {
	results := make([][]Entry, len(b.modules))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(buildConcurrency)
	for i, mod := range b.modules {
		i, mod := i, mod
		g.Go(func() error {
			entries, err := b.buildModule(ctx, mod)
			if err != nil {
				log.Printf("Warning: skipping catalog for module %s: %v", mod.Name, err)
				return nil
			}
			results[i] = entries
			return nil
		})
	}
	// Workers log and swallow their own failures, so Wait never errors.
	_ = g.Wait()

	cat := New()
	for i, mod := range b.modules {
		if results[i] != nil {
			cat.Append(mod.Name, results[i]...)
		}
	}
	return cat
}

// buildModule locates a representative source file for the module and asks
// the oracle which symbols are visible from its end, with an empty prefix.
func (b *Builder) buildModule(ctx context.Context, mod buildgraph.Module) ([]Entry, error) {
	repFile, err := representativeFile(mod.SourcePath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(repFile)
	if err != nil {
		return nil, fmt.Errorf("read representative file: %w", err)
	}

	// Completing at end of file keeps the whole module's scope visible.
	offset := int64(len(content))

	completions, err := b.completer.Complete(ctx, repFile, offset, mod.Name)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(completions))
	for _, c := range completions {
		entries = append(entries, Entry{
			Name:       c.Name,
			Kind:       c.Kind,
			ModuleName: c.ModuleName,
			DocBrief:   c.DocBrief,
		})
	}
	return entries, nil
}

// representativeFile returns the first source file (sorted walk order) under
// the module's source path.
func representativeFile(sourcePath string) (string, error) {
	var found string
	err := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, sourceExtension) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", sourcePath, err)
	}
	if found == "" {
		return "", fmt.Errorf("no %s files under %s", sourceExtension, sourcePath)
	}
	return found, nil
}
