package oracle

import (
	"context"
	"encoding/json"
	"fmt"
)

// StructureNode is one node of the structural parse tree. Kind tags are
// dot-namespaced (e.g. "source.lang.swift.decl.function.free").
type StructureNode struct {
	Kind         string          `json:"key.kind"`
	Name         string          `json:"key.name"`
	Offset       int64           `json:"key.offset"`
	Substructure []StructureNode `json:"key.substructure"`
}

// SyntaxNode is one node of the raw syntax tree. Text holds the source the
// node spans, which is what import scanning keys off.
type SyntaxNode struct {
	Kind     string       `json:"kind"`
	Text     string       `json:"text"`
	Children []SyntaxNode `json:"children"`
}

// DefaultStructuralBinary is the oracle invoked for structural parses.
const DefaultStructuralBinary = "sourcekitten"

// StructuralClient obtains structural and syntax trees from the external
// oracle binary.
type StructuralClient struct {
	runner CommandRunner
	binary string
}

// NewStructuralClient creates a client using the given runner. An empty
// binary falls back to DefaultStructuralBinary.
func NewStructuralClient(runner CommandRunner, binary string) *StructuralClient {
	if binary == "" {
		binary = DefaultStructuralBinary
	}
	return &StructuralClient{runner: runner, binary: binary}
}

// Structure invokes the oracle's structure subcommand and parses the nested
// declaration/expression tree from its JSON output.
func (c *StructuralClient) Structure(ctx context.Context, filePath string) (*StructureNode, error) {
	out, err := c.runner.Run(ctx, c.binary, "structure", "--file", filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStructuralOracle, filePath, err)
	}

	var root StructureNode
	if err := json.Unmarshal(out, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: unparseable structure output: %v", ErrStructuralOracle, filePath, err)
	}
	return &root, nil
}

// SyntaxTree invokes the oracle's syntax subcommand and parses the raw
// syntax tree from its JSON output.
func (c *StructuralClient) SyntaxTree(ctx context.Context, filePath string) (*SyntaxNode, error) {
	out, err := c.runner.Run(ctx, c.binary, "syntax", "--file", filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStructuralOracle, filePath, err)
	}

	var root SyntaxNode
	if err := json.Unmarshal(out, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: unparseable syntax output: %v", ErrStructuralOracle, filePath, err)
	}
	return &root, nil
}
