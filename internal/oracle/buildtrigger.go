package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultBuildTimeout bounds how long a triggered build may run. A stale or
// missing manifest is worth one build attempt, not an indefinite hang.
const DefaultBuildTimeout = 5 * time.Minute

// BuildTrigger regenerates the llbuild manifest by running the build tool.
// The command is idempotent; the manifest appears as a side effect.
type BuildTrigger struct {
	runner  CommandRunner
	timeout time.Duration
}

// NewBuildTrigger creates a trigger with the given timeout. A zero timeout
// falls back to DefaultBuildTimeout.
func NewBuildTrigger(runner CommandRunner, timeout time.Duration) *BuildTrigger {
	if timeout <= 0 {
		timeout = DefaultBuildTimeout
	}
	return &BuildTrigger{runner: runner, timeout: timeout}
}

// Trigger runs `swift build` for the package at projectDir under a hard
// timeout. Exceeding the budget surfaces ErrBuildTimeout.
func (t *BuildTrigger) Trigger(ctx context.Context, projectDir string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	_, err := t.runner.Run(ctx, "swift", "build", "--package-path", projectDir)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrBuildTimeout, t.timeout)
		}
		return fmt.Errorf("build trigger: %w", err)
	}
	return nil
}
