// Package extract turns oracle-provided trees into flat inputs for matching:
// imported module names and candidate component sites.
package extract

import (
	"strings"

	"github.com/quietchord/uselens/internal/oracle"
)

const (
	importKeyword  = "import"
	testableMarker = "@testable"

	importDeclKind = "import_decl"
	attributeKind  = "attribute"
)

// Imports walks the syntax tree pre-order and returns the imported module
// names in first-seen order. Duplicates are preserved; a file without
// imports yields an empty list.
//
// Two node shapes are recognized: a plain import declaration, and a
// test-scoped import attribute whose text begins with the @testable marker.
// Container nodes whose spanned text merely starts with an import do not
// count; only the import nodes themselves do.
func Imports(root *oracle.SyntaxNode) []string {
	names := []string{}
	if root == nil {
		return names
	}
	walkSyntax(root, &names)
	return names
}

func walkSyntax(node *oracle.SyntaxNode, names *[]string) {
	if isImportNode(node) {
		if name, ok := importedModule(node.Text); ok {
			*names = append(*names, name)
		}
	}
	for i := range node.Children {
		walkSyntax(&node.Children[i], names)
	}
}

func isImportNode(node *oracle.SyntaxNode) bool {
	switch node.Kind {
	case importDeclKind:
		return true
	case attributeKind:
		return strings.HasPrefix(strings.TrimSpace(node.Text), testableMarker)
	}
	return false
}

// importedModule extracts the module name from an import statement or a
// test-scoped import attribute: the first whitespace-delimited token after
// the import keyword.
func importedModule(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, testableMarker) {
		text = strings.TrimSpace(strings.TrimPrefix(text, testableMarker))
	}

	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != importKeyword {
		return "", false
	}
	return fields[1], true
}
