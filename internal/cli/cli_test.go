package cli

// Test Plan for CLI Helpers:
// - mergeList appends comma-separated flag values onto configured ones
// - mergeList trims whitespace and drops duplicates and empty items
// - watchRoots maps file arguments onto their parent directory
// - watchRoots dedupes directories and fails on missing paths
// - resolveModules resolves a present manifest without triggering a build
// - resolveModules triggers one build when the manifest is missing
// - resolveModules fails hard on a malformed manifest
// - loadOrBuildCatalog builds and caches, then reuses the cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietchord/uselens/internal/catalog"
	"github.com/quietchord/uselens/internal/config"
	"github.com/quietchord/uselens/internal/oracle"
)

// fakeRunner records invocations and delegates to onRun when set.
type fakeRunner struct {
	calls [][]string
	onRun func(name string, args []string) ([]byte, error)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.onRun != nil {
		return r.onRun(name, args)
	}
	return []byte("[]"), nil
}

func writeManifest(t *testing.T, rootDir string) string {
	t.Helper()

	manifestPath := filepath.Join(rootDir, ".build", "debug.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(manifestPath), 0755))

	srcDir := filepath.Join(rootDir, "Sources", "App")
	require.NoError(t, os.MkdirAll(srcDir, 0755))

	manifest := "commands:\n" +
		"  \"C.App-debug.module\":\n" +
		"    inputs:\n" +
		"      - \"" + filepath.Join(srcDir, "main.swift") + "\"\n"
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0644))
	return manifestPath
}

func testConfig() *config.Config {
	cfg := config.Default()
	return cfg
}

func TestMergeList_AppendsFlagValues(t *testing.T) {
	got := mergeList([]string{"DesignKit"}, "UIFoundation, Charts")
	assert.Equal(t, []string{"DesignKit", "UIFoundation", "Charts"}, got)
}

func TestMergeList_DropsDuplicatesAndEmpties(t *testing.T) {
	got := mergeList([]string{".git", ".build"}, ".git, ,Generated,Generated")
	assert.Equal(t, []string{".git", ".build", "Generated"}, got)

	assert.Equal(t, []string{".git"}, mergeList([]string{".git"}, ""))
}

func TestWatchRoots_MapsFilesToDirectories(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.swift")
	require.NoError(t, os.WriteFile(file, []byte("import Foundation\n"), 0644))

	// A file and its containing directory collapse to one watch root.
	dirs, err := watchRoots([]string{file, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, dirs)
}

func TestWatchRoots_MissingPath(t *testing.T) {
	_, err := watchRoots([]string{filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}

func TestResolveModules_ManifestPresent(t *testing.T) {
	rootDir := t.TempDir()
	writeManifest(t, rootDir)
	runner := &fakeRunner{}

	modules, err := resolveModules(context.Background(), runner, testConfig(), rootDir)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "App", modules[0].Name)

	// No build should have been triggered.
	assert.Empty(t, runner.calls)
}

func TestResolveModules_MissingManifestTriggersBuild(t *testing.T) {
	rootDir := t.TempDir()
	runner := &fakeRunner{}
	runner.onRun = func(name string, args []string) ([]byte, error) {
		// The triggered build materializes the manifest.
		writeManifest(t, rootDir)
		return nil, nil
	}

	modules, err := resolveModules(context.Background(), runner, testConfig(), rootDir)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "App", modules[0].Name)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "swift", runner.calls[0][0])
	assert.Contains(t, strings.Join(runner.calls[0], " "), "build")
}

func TestResolveModules_MalformedManifest(t *testing.T) {
	rootDir := t.TempDir()
	manifestPath := filepath.Join(rootDir, ".build", "debug.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(manifestPath), 0755))
	require.NoError(t, os.WriteFile(manifestPath, []byte(":\tnot yaml ["), 0644))

	_, err := resolveModules(context.Background(), &fakeRunner{}, testConfig(), rootDir)
	assert.Error(t, err)
}

func TestLoadOrBuildCatalog_BuildsThenReusesCache(t *testing.T) {
	rootDir := t.TempDir()
	writeManifest(t, rootDir)
	srcFile := filepath.Join(rootDir, "Sources", "App", "main.swift")
	require.NoError(t, os.WriteFile(srcFile, []byte("print(1)\n"), 0644))

	stateDir := filepath.Join(rootDir, ".uselens")
	cfg := testConfig()
	runner := &fakeRunner{}
	runner.onRun = func(name string, args []string) ([]byte, error) {
		return []byte(`[{"key.name":"run()","key.kind":"source.lang.swift.decl.function.free","key.moduleName":"App"}]`), nil
	}

	modules, err := resolveModules(context.Background(), runner, cfg, rootDir)
	require.NoError(t, err)

	cat, err := loadOrBuildCatalog(context.Background(), runner, cfg, modules, stateDir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
	completions := len(runner.calls)
	assert.Positive(t, completions)

	// Cache file exists and the second call does not hit the oracle.
	loaded, err := catalog.Load(filepath.Join(stateDir, "catalog.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"App"}, loaded.Modules())

	cached, err := loadOrBuildCatalog(context.Background(), runner, cfg, modules, stateDir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())
	assert.Len(t, runner.calls, completions)
}

var _ oracle.CommandRunner = (*fakeRunner)(nil)
