package scanner

import (
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
)

// ImportEdge is one observed module-to-module import relationship.
type ImportEdge struct {
	From      string
	To        string
	FileCount int
}

// ImportGraph accumulates module-level import edges observed while scanning.
// Each scanned file contributes each imported module once.
type ImportGraph struct {
	mu     sync.Mutex
	g      graph.Graph[string, string]
	counts map[[2]string]int
}

// NewImportGraph returns an empty directed import graph.
func NewImportGraph() *ImportGraph {
	return &ImportGraph{
		g:      graph.New(graph.StringHash, graph.Directed()),
		counts: make(map[[2]string]int),
	}
}

// AddFileImports records one file's imports for the owning module.
// Duplicate imports within the file count once; self-imports are dropped.
func (ig *ImportGraph) AddFileImports(owner string, imports []string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()

	_ = ig.g.AddVertex(owner)

	seen := make(map[string]struct{}, len(imports))
	for _, imported := range imports {
		if imported == owner {
			continue
		}
		if _, dup := seen[imported]; dup {
			continue
		}
		seen[imported] = struct{}{}

		_ = ig.g.AddVertex(imported)
		_ = ig.g.AddEdge(owner, imported)
		ig.counts[[2]string{owner, imported}]++
	}
}

// Edges returns all observed edges, sorted for stable output.
func (ig *ImportGraph) Edges() []ImportEdge {
	ig.mu.Lock()
	defer ig.mu.Unlock()

	edges := make([]ImportEdge, 0, len(ig.counts))
	for pair, count := range ig.counts {
		edges = append(edges, ImportEdge{From: pair[0], To: pair[1], FileCount: count})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}
