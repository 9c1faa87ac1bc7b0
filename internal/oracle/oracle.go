// Package oracle wraps the external tools the scanner depends on: the
// structural-parse and symbol-completion oracles (sourcekitten) and the
// build trigger (swift build). All invocations go through CommandRunner so
// the core pipeline can be exercised with scripted outputs.
package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrStructuralOracle marks a failed structural-parse invocation or an
	// unparseable structural response. Per-file, never fatal to a run.
	ErrStructuralOracle = errors.New("structural oracle failed")

	// ErrCompletionOracle marks a failed completion invocation or an
	// unparseable completion response. Per-module, never fatal to a run.
	ErrCompletionOracle = errors.New("completion oracle failed")

	// ErrBuildTimeout marks a build trigger that exceeded its time budget.
	ErrBuildTimeout = errors.New("build trigger timed out")
)

// CommandRunner executes an external command and returns its stdout.
// Implementations must honor context cancellation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Structural provides syntactic views of a single source file.
type Structural interface {
	// Structure returns the nested declaration/expression tree.
	Structure(ctx context.Context, filePath string) (*StructureNode, error)

	// SyntaxTree returns the raw syntax tree with per-node source text,
	// used for import scanning.
	SyntaxTree(ctx context.Context, filePath string) (*SyntaxNode, error)
}

// Completer lists the symbols visible at an offset within a module scope.
type Completer interface {
	Complete(ctx context.Context, filePath string, offset int64, module string) ([]Completion, error)
}

// ExecRunner runs commands on the host. Dir, when set, becomes the working
// directory of every invocation.
type ExecRunner struct {
	Dir string
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
