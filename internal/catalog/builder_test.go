package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/oracle"
)

// Test Plan for Catalog Builder:
// - Build queries each module at the end of a representative source file
// - Build assembles buckets in topology order regardless of completion order
// - A module whose oracle call fails is skipped, others proceed
// - A module without source files is skipped, others proceed
// - Build handles more modules than the worker cap without losing results

// fakeCompleter returns scripted completions per module. Build calls it from
// concurrent workers, so recorded offsets are guarded.
type fakeCompleter struct {
	mu       sync.Mutex
	byModule map[string][]oracle.Completion
	errFor   map[string]error
	offsets  map[string]int64
}

func (f *fakeCompleter) Complete(ctx context.Context, filePath string, offset int64, module string) ([]oracle.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offsets != nil {
		f.offsets[module] = offset
	}
	if err := f.errFor[module]; err != nil {
		return nil, err
	}
	return f.byModule[module], nil
}

func writeModule(t *testing.T, root, name, source string) buildgraph.Module {
	t.Helper()
	dir := filepath.Join(root, "Sources", name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".swift"), []byte(source), 0o644))
	return buildgraph.Module{Name: name, SourcePath: dir}
}

func TestBuilder_Build(t *testing.T) {
	root := t.TempDir()
	app := writeModule(t, root, "App", "import Lib\n")
	lib := writeModule(t, root, "Lib", "public func run() {}\n")

	completer := &fakeCompleter{
		byModule: map[string][]oracle.Completion{
			"App": {{Name: "Card", Kind: "source.lang.swift.decl.struct", ModuleName: "App"}},
			"Lib": {{Name: "run()", Kind: "source.lang.swift.decl.function.free", ModuleName: "Lib", DocBrief: "Runs."}},
		},
		offsets: map[string]int64{},
	}

	cat := NewBuilder(completer, []buildgraph.Module{app, lib}).Build(context.Background())

	assert.Equal(t, []string{"App", "Lib"}, cat.Modules())
	require.Len(t, cat.Entries("Lib"), 1)
	assert.Equal(t, "run()", cat.Entries("Lib")[0].Name)
	assert.Equal(t, "Runs.", cat.Entries("Lib")[0].DocBrief)

	// Insertion offset is end-of-file of the representative source.
	assert.Equal(t, int64(len("import Lib\n")), completer.offsets["App"])
}

func TestBuilder_SkipsFailedModule(t *testing.T) {
	root := t.TempDir()
	app := writeModule(t, root, "App", "// app\n")
	lib := writeModule(t, root, "Lib", "// lib\n")

	completer := &fakeCompleter{
		byModule: map[string][]oracle.Completion{
			"Lib": {{Name: "run()", Kind: "source.lang.swift.decl.function.free", ModuleName: "Lib"}},
		},
		errFor: map[string]error{"App": errors.New("oracle stalled")},
	}

	cat := NewBuilder(completer, []buildgraph.Module{app, lib}).Build(context.Background())

	assert.Equal(t, []string{"Lib"}, cat.Modules())
	assert.Len(t, cat.Entries("Lib"), 1)
}

func TestBuilder_SkipsModuleWithoutSources(t *testing.T) {
	root := t.TempDir()
	empty := buildgraph.Module{Name: "Empty", SourcePath: filepath.Join(root, "Sources", "Empty")}
	require.NoError(t, os.MkdirAll(empty.SourcePath, 0o755))
	lib := writeModule(t, root, "Lib", "// lib\n")

	completer := &fakeCompleter{
		byModule: map[string][]oracle.Completion{
			"Lib": {{Name: "run()", Kind: "source.lang.swift.decl.function.free", ModuleName: "Lib"}},
		},
	}

	cat := NewBuilder(completer, []buildgraph.Module{empty, lib}).Build(context.Background())
	assert.Equal(t, []string{"Lib"}, cat.Modules())
}

func TestBuilder_ManyModulesConcurrently(t *testing.T) {
	root := t.TempDir()

	byModule := map[string][]oracle.Completion{}
	var modules []buildgraph.Module
	var names []string
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("Mod%02d", i)
		modules = append(modules, writeModule(t, root, name, "// "+name+"\n"))
		names = append(names, name)
		byModule[name] = []oracle.Completion{
			{Name: "run()", Kind: "source.lang.swift.decl.function.free", ModuleName: name},
		}
	}

	completer := &fakeCompleter{byModule: byModule, offsets: map[string]int64{}}
	cat := NewBuilder(completer, modules).Build(context.Background())

	// Topology order is preserved and every module's offset was recorded.
	assert.Equal(t, names, cat.Modules())
	assert.Len(t, completer.offsets, len(names))
	for _, name := range names {
		assert.Len(t, cat.Entries(name), 1)
	}
}
