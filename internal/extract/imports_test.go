package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quietchord/uselens/internal/oracle"
)

// Test Plan for Import Extraction:
// - Imports() finds plain import statements
// - Imports() finds @testable import attributes
// - Imports() preserves first-seen order and duplicates
// - Imports() descends into every node, not just top-level ones
// - Imports() returns an empty list for files without imports
// - Imports() ignores text that merely mentions the import keyword
// - Imports() ignores container nodes whose spanned text starts with an import

func TestImports_PlainAndTestable(t *testing.T) {
	tree := &oracle.SyntaxNode{
		Kind: "source_file",
		Children: []oracle.SyntaxNode{
			{Kind: "import_decl", Text: "import Lib"},
			{Kind: "attribute", Text: "@testable import AppCore"},
			{Kind: "import_decl", Text: "import Foundation"},
		},
	}

	assert.Equal(t, []string{"Lib", "AppCore", "Foundation"}, Imports(tree))
}

func TestImports_DuplicatesAndNesting(t *testing.T) {
	tree := &oracle.SyntaxNode{
		Kind: "source_file",
		Children: []oracle.SyntaxNode{
			{Kind: "import_decl", Text: "import Lib"},
			{
				Kind: "ifconfig_decl",
				Children: []oracle.SyntaxNode{
					{Kind: "import_decl", Text: "import Lib"},
				},
			},
		},
	}

	assert.Equal(t, []string{"Lib", "Lib"}, Imports(tree))
}

func TestImports_IgnoresContainerText(t *testing.T) {
	// Container nodes span their whole subtree's source. A root carrying the
	// full file text must not double-count the first import.
	tree := &oracle.SyntaxNode{
		Kind: "source_file",
		Text: "import Lib\nimport Foundation\nrun()\n",
		Children: []oracle.SyntaxNode{
			{Kind: "import_decl", Text: "import Lib"},
			{Kind: "import_decl", Text: "import Foundation"},
			{Kind: "call_expr", Text: "run()"},
		},
	}

	assert.Equal(t, []string{"Lib", "Foundation"}, Imports(tree))

	// A non-testable attribute never contributes, whatever its text.
	attr := &oracle.SyntaxNode{
		Kind: "source_file",
		Children: []oracle.SyntaxNode{
			{Kind: "attribute", Text: "@available(iOS 15, *)"},
			{Kind: "attribute", Text: "@testable import AppCore"},
		},
	}
	assert.Equal(t, []string{"AppCore"}, Imports(attr))
}

func TestImports_Empty(t *testing.T) {
	tree := &oracle.SyntaxNode{
		Kind: "source_file",
		Children: []oracle.SyntaxNode{
			{Kind: "function_decl", Text: "func main() {}"},
		},
	}

	got := Imports(tree)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, Imports(nil))
}

func TestImportedModule(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"import Lib", "Lib", true},
		{"  import Lib  ", "Lib", true},
		{"@testable import AppCore", "AppCore", true},
		{"import struct Foundation.Date", "struct", true},
		{"important code", "", false},
		{"import", "", false},
		{"let x = 1", "", false},
	}

	for _, tt := range tests {
		got, ok := importedModule(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
