package probe

import (
	"context"
	"os/exec"
	"time"
)

// CommandRunner runs an external command and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	Timeout time.Duration
}

// Run executes the command, bounded by the runner timeout when set
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmdCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	return exec.CommandContext(cmdCtx, name, args...).CombinedOutput()
}
