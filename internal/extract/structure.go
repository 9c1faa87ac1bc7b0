package extract

import (
	"strings"

	"github.com/quietchord/uselens/internal/oracle"
)

// KindNamespace prefixes every structural kind tag the oracle emits.
const KindNamespace = "source.lang.swift."

// Candidate kind categories. A node is kept as a candidate iff its kind tag
// starts with one of these; every node is recursed into regardless, since
// call expressions nest inside retained declarations.
var candidateKindPrefixes = []string{
	KindNamespace + "decl",
	KindNamespace + "expr",
	KindNamespace + "structure",
}

// CandidateComponent is a raw declaration or usage site found by structural
// parsing of one file, not yet resolved against the catalog.
type CandidateComponent struct {
	Name   string
	Kind   string
	Offset int64
}

// StrippedKind returns the candidate's kind without the language namespace
// prefix, e.g. "source.lang.swift.expr.call" -> "expr.call".
func (c CandidateComponent) StrippedKind() string {
	return strings.TrimPrefix(c.Kind, KindNamespace)
}

// Flatten lifts every declaration, expression, and structure node out of the
// structural tree, pre-order.
func Flatten(root *oracle.StructureNode) []CandidateComponent {
	candidates := []CandidateComponent{}
	if root == nil {
		return candidates
	}
	flatten(root, &candidates)
	return candidates
}

func flatten(node *oracle.StructureNode, out *[]CandidateComponent) {
	if node.Name != "" && isCandidateKind(node.Kind) {
		*out = append(*out, CandidateComponent{
			Name:   node.Name,
			Kind:   node.Kind,
			Offset: node.Offset,
		})
	}
	for i := range node.Substructure {
		flatten(&node.Substructure[i], out)
	}
}

func isCandidateKind(kind string) bool {
	for _, prefix := range candidateKindPrefixes {
		if strings.HasPrefix(kind, prefix) {
			return true
		}
	}
	return false
}
