// Package metadata aggregates resolved matches into durable per-symbol usage
// records. The Aggregator is the single owner of record state for a run;
// callers get read-only access for persistence.
package metadata

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"github.com/quietchord/uselens/internal/buildgraph"
	"github.com/quietchord/uselens/internal/match"
)

// lineIndexCacheSize bounds the per-file line index cache. Indexes are small;
// this mostly guards against scans over very large trees.
const lineIndexCacheSize = 512

// Location is one resolved source position.
type Location struct {
	Line   int   `json:"line"`
	Column int   `json:"column"`
	Offset int64 `json:"offset"`
}

// Record is the aggregated usage record for one logical symbol, keyed by
// module/name/kind. Counts and locations grow additively; records are never
// deleted within a run.
type Record struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Type                 string                `json:"type"`
	LibraryName          string                `json:"libraryName"`
	ThirdParty           bool                  `json:"thirdParty"`
	IsSelfDeclared       bool                  `json:"isSelfDeclared"`
	DesignSystems        []string              `json:"designSystems"`
	DesignDocs           string                `json:"designDocs,omitempty"`
	TotalOccurrences     int                   `json:"totalOccurrences"`
	FilewiseOccurrences  map[string]int        `json:"filewiseOccurrences"`
	FilewiseLocations    map[string][]Location `json:"filewiseLocations"`
	Tags                 []string              `json:"tags"`
	Stories              []string              `json:"stories"`
	OverriddenComponents map[string]string     `json:"overriddenComponents"`
}

// Key builds the unique record key for a symbol.
func Key(module, name, kind string) string {
	return fmt.Sprintf("%s/%s/%s", module, name, kind)
}

// Aggregator upserts Records for resolved matches. Writes are serialized:
// concurrent file pipelines may resolve to the same key.
type Aggregator struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string

	thirdParty    map[string]bool
	designSystems []string

	lines otter.Cache[string, *lineIndex]
}

// New creates an aggregator over the resolved module topology and the
// caller-supplied design-system module names.
func New(modules []buildgraph.Module, designSystems []string) (*Aggregator, error) {
	lines, err := otter.MustBuilder[string, *lineIndex](lineIndexCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("build line index cache: %w", err)
	}

	thirdParty := make(map[string]bool, len(modules))
	for _, m := range modules {
		thirdParty[m.Name] = m.ThirdParty
	}

	return &Aggregator{
		records:       make(map[string]*Record),
		thirdParty:    thirdParty,
		designSystems: designSystems,
		lines:         lines,
	}, nil
}

// Record upserts the metadata record for one resolved match found in
// filePath, whose content is passed for offset-to-position conversion.
func (a *Aggregator) Record(m match.Match, filePath string, content []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := Key(m.Entry.ModuleName, m.Candidate.Name, m.Candidate.StrippedKind())
	rec, ok := a.records[key]
	if !ok {
		rec = a.newRecord(m)
		a.records[key] = rec
		a.order = append(a.order, key)
	}

	rec.TotalOccurrences++
	rec.FilewiseOccurrences[filePath]++

	line, column := a.lineIndexFor(filePath, content).locate(m.Candidate.Offset)
	// Locations are appended, not overwritten: multiple occurrences in one
	// file each keep their own position.
	rec.FilewiseLocations[filePath] = append(rec.FilewiseLocations[filePath], Location{
		Line:   line,
		Column: column,
		Offset: m.Candidate.Offset,
	})
}

func (a *Aggregator) newRecord(m match.Match) *Record {
	third := a.thirdParty[m.Entry.ModuleName]
	return &Record{
		ID:                   uuid.NewString(),
		Name:                 m.Candidate.Name,
		Type:                 m.Candidate.StrippedKind(),
		LibraryName:          m.Entry.ModuleName,
		ThirdParty:           third,
		IsSelfDeclared:       !third,
		DesignSystems:        a.designSystemsFor(m.Entry.ModuleName),
		DesignDocs:           m.Entry.DocBrief,
		FilewiseOccurrences:  map[string]int{},
		FilewiseLocations:    map[string][]Location{},
		Tags:                 []string{},
		Stories:              []string{},
		OverriddenComponents: map[string]string{},
	}
}

// designSystemsFor returns the design-system names whose module matches the
// owning module, case-insensitively.
func (a *Aggregator) designSystemsFor(module string) []string {
	systems := []string{}
	for _, ds := range a.designSystems {
		if strings.EqualFold(ds, module) {
			systems = append(systems, ds)
		}
	}
	return systems
}

// Records returns all records in first-seen order. The returned records are
// owned by the aggregator and must be treated as read-only.
func (a *Aggregator) Records() []*Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Record, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.records[key])
	}
	return out
}

// Len returns the number of distinct records.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// InvalidateFile drops the cached line index for a file whose content has
// changed (watch mode rescans).
func (a *Aggregator) InvalidateFile(filePath string) {
	a.lines.Delete(filePath)
}

func (a *Aggregator) lineIndexFor(filePath string, content []byte) *lineIndex {
	if ix, ok := a.lines.Get(filePath); ok {
		return ix
	}
	ix := buildLineIndex(content)
	a.lines.Set(filePath, ix)
	return ix
}
