// Package infra implements OS bindings (registry, services, filesystem, processes, stores).
package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/eliteGoblin/privguard/internal/domain"
)

// ExecCommandRunner runs real external utilities (netsh, schtasks, powershell).
type ExecCommandRunner struct{}

// NewCommandRunner creates a runner backed by os/exec.
func NewCommandRunner() domain.CommandRunner {
	return &ExecCommandRunner{}
}

// Run executes name and captures both output streams.
// A non-zero exit is returned in the result, not as an error.
func (r *ExecCommandRunner) Run(ctx context.Context, name string, args ...string) (domain.CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := domain.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	case errors.Is(err, exec.ErrNotFound):
		return result, fmt.Errorf("%w: %s not found", domain.ErrUnsupported, name)
	default:
		return result, fmt.Errorf("failed to run %s: %w", name, err)
	}
}

// Ensure ExecCommandRunner implements domain.CommandRunner.
var _ domain.CommandRunner = (*ExecCommandRunner)(nil)
