package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
)

// executor runs a built command and commits its output.
type executor struct {
	ffmpegPath string
	run        ffmpegRunner
	fs         fileSystem
}

// Execute runs cmd to completion. With an atomic command the rename of the
// temp file onto the final path is the only commit point; any failure before
// it removes the temp file and leaves the final path untouched. After
// success the final file must exist and be non-empty.
func (e executor) Execute(ctx context.Context, cmd Command, onLine ffmpeg.LineFunc) (string, error) {
	if _, err := e.run.Run(ctx, e.ffmpegPath, cmd.Args, onLine); err != nil {
		e.discard(cmd)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("conversion interrupted: %w", ctxErr)
		}
		var exitErr *ffmpeg.ExitError
		if errors.As(err, &exitErr) {
			return "", &ConversionError{Code: exitErr.Code, Stderr: stripProgress(exitErr.Stderr)}
		}
		return "", fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if cmd.Atomic() {
		if err := e.fs.Rename(cmd.OutputPath, cmd.FinalPath); err != nil {
			e.discard(cmd)
			return "", fmt.Errorf("%w: %s -> %s: %v", ErrRenameFailed, cmd.OutputPath, cmd.FinalPath, err)
		}
	}

	info, err := e.fs.Stat(cmd.FinalPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrOutputMissingOrEmpty, cmd.FinalPath, err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrOutputMissingOrEmpty, cmd.FinalPath)
	}
	return cmd.FinalPath, nil
}

// discard removes the temp output of an atomic command.
func (e executor) discard(cmd Command) {
	if cmd.Atomic() {
		_ = e.fs.Remove(cmd.OutputPath)
	}
}
