// Package match resolves candidate components against the symbol catalog.
//
// Resolution is deliberately a name-plus-kind heuristic: the oracle does not
// expose full type or overload information cheaply, so base-name equality
// with coarse kind compatibility is the contract.
package match

import (
	"strings"

	"github.com/quietchord/uselens/internal/catalog"
	"github.com/quietchord/uselens/internal/extract"
)

// Match pairs a candidate with the catalog entry that resolved it.
type Match struct {
	Candidate extract.CandidateComponent
	Entry     catalog.Entry
}

// Matcher resolves candidates with first-match-wins semantics, scanning
// modules and their entries in catalog-insertion order.
type Matcher struct {
	cat *catalog.Catalog
}

// New creates a matcher over the given catalog.
func New(cat *catalog.Catalog) *Matcher {
	return &Matcher{cat: cat}
}

// Resolve matches every candidate that has a compatible catalog entry.
// Candidates with no match anywhere are dropped: they are either first-party
// symbols outside the trackable catalog, or noise.
func (m *Matcher) Resolve(candidates []extract.CandidateComponent) []Match {
	matches := []Match{}
	for _, c := range candidates {
		if entry, ok := m.resolve(c); ok {
			matches = append(matches, Match{Candidate: c, Entry: entry})
		}
	}
	return matches
}

func (m *Matcher) resolve(c extract.CandidateComponent) (catalog.Entry, bool) {
	base := catalog.BaseName(c.Name)
	for _, module := range m.cat.Modules() {
		for _, entry := range m.cat.Entries(module) {
			if entry.BaseName() != base {
				continue
			}
			if kindsCompatible(entry.Kind, c.Kind) {
				return entry, true
			}
		}
	}
	return catalog.Entry{}, false
}

// kindsCompatible accepts an exact kind match, or the declared-as-function /
// referenced-as-call pairing.
func kindsCompatible(entryKind, candidateKind string) bool {
	if entryKind == candidateKind {
		return true
	}
	return denotesFunction(entryKind) && denotesExpression(candidateKind)
}

func denotesFunction(kind string) bool {
	return strings.Contains(kind, "function") || strings.Contains(kind, "method")
}

func denotesExpression(kind string) bool {
	return strings.Contains(kind, "expr")
}
