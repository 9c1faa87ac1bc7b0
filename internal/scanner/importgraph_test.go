package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Plan for Import Graph:
// - Edges count one per file, not per duplicate import
// - Self-imports are dropped
// - Edges are sorted for stable output

func TestImportGraph_Edges(t *testing.T) {
	ig := NewImportGraph()

	ig.AddFileImports("App", []string{"Lib", "Lib", "UIKit"})
	ig.AddFileImports("App", []string{"Lib"})
	ig.AddFileImports("Lib", []string{"Lib", "Foundation"})

	assert.Equal(t, []ImportEdge{
		{From: "App", To: "Lib", FileCount: 2},
		{From: "App", To: "UIKit", FileCount: 1},
		{From: "Lib", To: "Foundation", FileCount: 1},
	}, ig.Edges())
}

func TestImportGraph_Empty(t *testing.T) {
	assert.Empty(t, NewImportGraph().Edges())
}
