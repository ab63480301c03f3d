package probe

import (
	"context"
	"os/exec"
)

// commandRunner executes external commands and returns their stdout.
type commandRunner interface {
	Output(ctx context.Context, name string, args []string) ([]byte, error)
}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name is resolved by ffmpeg.Resolve, args are built by this package
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}
