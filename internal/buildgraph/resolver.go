// Package buildgraph resolves the module topology of a Swift package from
// the llbuild manifest that `swift build` leaves behind (.build/debug.yaml).
package buildgraph

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrManifestUnavailable indicates the build manifest does not exist yet.
	// Callers should degrade (defer module-dependent work), not abort the run.
	ErrManifestUnavailable = errors.New("build manifest unavailable")

	// ErrManifestMalformed indicates the manifest exists but is not parseable
	// or lacks the expected top-level structure.
	ErrManifestMalformed = errors.New("build manifest malformed")
)

// Module is one compilable unit resolved from the build manifest.
// Immutable after creation, uniquely keyed by Name.
type Module struct {
	Name         string `json:"name"`
	SourcePath   string `json:"sourcePath"`
	ManifestPath string `json:"manifestPath"`
	ThirdParty   bool   `json:"thirdParty"`
}

// Owns reports whether path lives under the module's source directory.
func (m Module) Owns(path string) bool {
	return path == m.SourcePath ||
		strings.HasPrefix(path, m.SourcePath+string(filepath.Separator))
}

const (
	// Compile-target keys look like "C.MyModule-debug.module".
	compileKeyPrefix = "C."

	// Dependency checkouts live under this path segment; a first input below
	// it marks the module as third-party.
	checkoutsSegment = string(filepath.Separator) + "checkouts" + string(filepath.Separator)

	// Anything else under .build/ is an intermediate build product.
	buildDirSegment = string(filepath.Separator) + ".build" + string(filepath.Separator)
)

type manifest struct {
	Commands map[string]command `yaml:"commands"`
}

type command struct {
	Inputs []string `yaml:"inputs"`
}

// Resolve parses the llbuild manifest at manifestPath and derives the module
// topology. Targets whose inputs are purely intermediate build products are
// excluded. Modules are returned in sorted key order for deterministic output.
func Resolve(manifestPath string) ([]Module, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestUnavailable, manifestPath)
		}
		return nil, fmt.Errorf("read manifest %s: %w", manifestPath, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMalformed, err)
	}
	if m.Commands == nil {
		return nil, fmt.Errorf("%w: missing top-level commands mapping", ErrManifestMalformed)
	}

	keys := make([]string, 0, len(m.Commands))
	for key := range m.Commands {
		if strings.HasPrefix(key, compileKeyPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var modules []Module
	for _, key := range keys {
		cmd := m.Commands[key]
		if len(cmd.Inputs) == 0 {
			continue
		}

		mod, ok := moduleFromTarget(key, cmd.Inputs[0], manifestPath)
		if !ok {
			continue
		}
		modules = append(modules, mod)
	}

	return modules, nil
}

// moduleFromTarget derives a Module from a compile-target key and its first
// input. Returns false when the input is an intermediate build product.
func moduleFromTarget(key, firstInput, manifestPath string) (Module, bool) {
	mod := Module{
		Name:         moduleName(key),
		ManifestPath: manifestPath,
	}

	if dir, ok := checkoutDir(firstInput); ok {
		mod.SourcePath = dir
		mod.ThirdParty = true
		return mod, true
	}

	if strings.Contains(firstInput, buildDirSegment) {
		// Compiled from generated sources only; not part of the topology.
		return Module{}, false
	}

	mod.SourcePath = filepath.Dir(firstInput)
	return mod, true
}

// moduleName strips the compile prefix and the trailing disambiguating
// suffix: "C.MyModule-debug.module" -> "MyModule". The suffix starts at the
// last dash, so module names containing dashes survive.
func moduleName(key string) string {
	name := strings.TrimPrefix(key, compileKeyPrefix)
	if i := strings.LastIndex(name, "-"); i >= 0 {
		name = name[:i]
	}
	return name
}

// checkoutDir returns the checkout subdirectory containing the input, e.g.
// "/x/.build/checkouts/Lib/Sources/Lib/F.swift" -> "/x/.build/checkouts/Lib".
func checkoutDir(input string) (string, bool) {
	i := strings.Index(input, checkoutsSegment)
	if i < 0 {
		return "", false
	}
	rest := input[i+len(checkoutsSegment):]
	j := strings.IndexByte(rest, filepath.Separator)
	if j < 0 {
		return "", false
	}
	return input[:i+len(checkoutsSegment)+j], true
}

// SourcePaths returns the source directories of the given modules, for use in
// scan-path validation diagnostics.
func SourcePaths(modules []Module) []string {
	paths := make([]string, 0, len(modules))
	for _, m := range modules {
		paths = append(paths, m.SourcePath)
	}
	return paths
}
