package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Completion is one candidate symbol reported by the completion oracle.
type Completion struct {
	Name       string `json:"key.name"`
	Kind       string `json:"key.kind"`
	ModuleName string `json:"key.moduleName"`
	DocBrief   string `json:"key.doc.brief"`
}

// CompletionClient lists importable symbols via the external oracle binary.
type CompletionClient struct {
	runner CommandRunner
	binary string
}

// NewCompletionClient creates a client using the given runner. An empty
// binary falls back to DefaultStructuralBinary (the same oracle serves both
// structure and completion).
func NewCompletionClient(runner CommandRunner, binary string) *CompletionClient {
	if binary == "" {
		binary = DefaultStructuralBinary
	}
	return &CompletionClient{runner: runner, binary: binary}
}

// Complete asks the oracle for the symbols visible at offset within the given
// module scope, with an empty completion prefix.
func (c *CompletionClient) Complete(ctx context.Context, filePath string, offset int64, module string) ([]Completion, error) {
	out, err := c.runner.Run(ctx, c.binary,
		"complete",
		"--file", filePath,
		"--offset", strconv.FormatInt(offset, 10),
		"--text", "",
		"--spm-module", module,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: module %s: %v", ErrCompletionOracle, module, err)
	}

	var completions []Completion
	if err := json.Unmarshal(out, &completions); err != nil {
		return nil, fmt.Errorf("%w: module %s: unparseable completion output: %v", ErrCompletionOracle, module, err)
	}
	return completions, nil
}
