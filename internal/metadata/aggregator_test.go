package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/catalog"
	"github.com/quietchord/uselens/internal/extract"
	"github.com/quietchord/uselens/internal/match"
)

// Test Plan for Metadata Aggregator:
// - First match for a key creates a record with immutable fields populated
// - Repeated matches for the same key increment counts, never duplicate keys
// - totalOccurrences always equals the sum of filewiseOccurrences
// - Locations are appended per file, one per occurrence
// - Offset-to-line/column conversion follows the newline-scan rule
// - Design systems tag modules case-insensitively
// - Unknown modules default to first-party
// - Export round-trips records in first-seen order

var testModules = []buildgraph.Module{
	{Name: "App", SourcePath: "/work/Sources/App"},
	{Name: "Lib", SourcePath: "/work/.build/checkouts/Lib", ThirdParty: true},
}

func libMatch(name string, offset int64) match.Match {
	return match.Match{
		Candidate: extract.CandidateComponent{
			Name:   name,
			Kind:   "source.lang.swift.expr.call",
			Offset: offset,
		},
		Entry: catalog.Entry{
			Name:       name,
			Kind:       "source.lang.swift.decl.function.free",
			ModuleName: "Lib",
			DocBrief:   "Runs the thing.",
		},
	}
}

func TestAggregator_CreateRecord(t *testing.T) {
	a, err := New(testModules, []string{"lib", "Other"})
	require.NoError(t, err)

	content := []byte("import Lib\nrun()\n")
	a.Record(libMatch("run()", 11), "/work/Sources/App/main.swift", content)

	recs := a.Records()
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "run()", rec.Name)
	assert.Equal(t, "expr.call", rec.Type)
	assert.Equal(t, "Lib", rec.LibraryName)
	assert.True(t, rec.ThirdParty)
	assert.False(t, rec.IsSelfDeclared)
	assert.Equal(t, []string{"lib"}, rec.DesignSystems)
	assert.Equal(t, "Runs the thing.", rec.DesignDocs)
	assert.Equal(t, 1, rec.TotalOccurrences)
	assert.Equal(t, map[string]int{"/work/Sources/App/main.swift": 1}, rec.FilewiseOccurrences)

	locs := rec.FilewiseLocations["/work/Sources/App/main.swift"]
	require.Len(t, locs, 1)
	assert.Equal(t, Location{Line: 2, Column: 1, Offset: 11}, locs[0])
}

func TestAggregator_Idempotence(t *testing.T) {
	a, err := New(testModules, nil)
	require.NoError(t, err)

	content := []byte("run()\nrun()\n")
	file := "/work/Sources/App/a.swift"

	// Scan the same file twice, two matched candidates each time.
	for n := 0; n < 2; n++ {
		a.Record(libMatch("run()", 0), file, content)
		a.Record(libMatch("run()", 6), file, content)
	}

	recs := a.Records()
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Equal(t, 4, rec.TotalOccurrences)
	assert.Equal(t, 4, rec.FilewiseOccurrences[file])
	assert.Len(t, rec.FilewiseLocations[file], 4)

	sum := 0
	for _, n := range rec.FilewiseOccurrences {
		sum += n
	}
	assert.Equal(t, rec.TotalOccurrences, sum)
}

func TestAggregator_DistinctKeysPerKind(t *testing.T) {
	a, err := New(testModules, nil)
	require.NoError(t, err)

	content := []byte("run()")
	file := "/f.swift"

	declared := libMatch("run()", 0)
	declared.Candidate.Kind = "source.lang.swift.decl.function.free"

	a.Record(libMatch("run()", 0), file, content)
	a.Record(declared, file, content)

	assert.Equal(t, 2, a.Len())
}

func TestLineIndex_Locate(t *testing.T) {
	ix := buildLineIndex([]byte("a\nbb\nccc"))

	// Second 'b': one newline before it, one column past the line start.
	line, col := ix.locate(3)
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)

	line, col = ix.locate(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	// First 'c'.
	line, col = ix.locate(5)
	assert.Equal(t, 3, line)
	assert.Equal(t, 1, col)
}

func TestAggregator_UnknownModuleIsFirstParty(t *testing.T) {
	a, err := New(nil, nil)
	require.NoError(t, err)

	a.Record(libMatch("run()", 0), "/f.swift", []byte("run()"))

	rec := a.Records()[0]
	assert.False(t, rec.ThirdParty)
	assert.True(t, rec.IsSelfDeclared)
}

func TestAggregator_Export(t *testing.T) {
	a, err := New(testModules, nil)
	require.NoError(t, err)

	a.Record(libMatch("run()", 0), "/f.swift", []byte("run()"))
	a.Record(libMatch("stop()", 0), "/f.swift", []byte("stop()"))

	path := filepath.Join(t.TempDir(), "out", "usage.json")
	require.NoError(t, a.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out struct {
		Components []*Record `json:"components"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Components, 2)
	assert.Equal(t, "run()", out.Components[0].Name)
	assert.Equal(t, "stop()", out.Components[1].Name)
}
