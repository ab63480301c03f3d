package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// waitDelay bounds how long Wait blocks on stderr after the child is killed.
	waitDelay = 5 * time.Second

	// maxStderrLine is the longest single stderr line the drainer will buffer.
	maxStderrLine = 1024 * 1024
)

// ExitError reports a process that ran to completion with a non-zero exit code.
type ExitError struct {
	Tool   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.Code, msg)
}

// Is reports ErrProcessFailed so callers can match without a type assertion.
func (e *ExitError) Is(target error) bool {
	return target == ErrProcessFailed
}

// LineFunc receives each stderr line as the process emits it.
type LineFunc func(line string)

// Run executes a tool to completion with stdout discarded.
// Stderr is drained line by line on a separate goroutine while the process runs,
// so a chatty child can never stall on a full pipe. The full stderr text is
// returned on success and failure alike.
//
// Canceling ctx kills the child; the returned error then wraps ctx.Err().
func Run(ctx context.Context, path string, args []string, onLine LineFunc) (string, error) {
	// #nosec G204 -- path is resolved by Resolver, args are built by this module
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = nil
	cmd.WaitDelay = waitDelay

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("create stderr pipe: %w", err)
	}

	tool := filepath.Base(path)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", tool, err)
	}

	var captured bytes.Buffer
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxStderrLine)
		for scanner.Scan() {
			line := scanner.Text()
			captured.WriteString(line)
			captured.WriteByte('\n')
			if onLine != nil {
				onLine(line)
			}
		}
		// Keep the pipe empty even if a line overflowed the scanner.
		_, _ = io.Copy(io.Discard, stderr)
	}()

	<-drained
	waitErr := cmd.Wait()
	output := captured.String()

	if waitErr == nil {
		return output, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output, fmt.Errorf("%s interrupted: %w", tool, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return output, &ExitError{Tool: tool, Code: exitErr.ExitCode(), Stderr: output}
	}
	return output, fmt.Errorf("%s: %w", tool, waitErr)
}

// ---------------------------------------------------------------------------
// Executor - testable FFmpeg execution with dependency injection
// ---------------------------------------------------------------------------

// runOutputFn is the function type for running a command and capturing output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// runFn is the function type for running a long process with line draining.
type runFn func(ctx context.Context, path string, args []string, onLine LineFunc) (string, error)

// Executor runs FFmpeg commands with injectable dependencies.
type Executor struct {
	runOutput runOutputFn
	run       runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) ExecutorOption {
	return func(e *Executor) { e.runOutput = fn }
}

// WithRun sets a custom run function (for testing).
func WithRun(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		runOutput: defaultRunOutput,
		run:       Run,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOutput executes FFmpeg and captures its stderr output.
// FFmpeg writes most diagnostic output (including -version banners) to stderr or stdout.
func (e *Executor) RunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	return e.runOutput(ctx, ffmpegPath, args)
}

// Run executes a long-running process, draining stderr as it goes.
func (e *Executor) Run(ctx context.Context, path string, args []string, onLine LineFunc) (string, error) {
	return e.run(ctx, path, args, onLine)
}

// defaultRunOutput is the production implementation.
// Returns combined output even when the command fails.
func defaultRunOutput(ctx context.Context, ffmpegPath string, args []string) (string, error) {
	// #nosec G204 -- path is resolved by Resolver
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// ---------------------------------------------------------------------------
// Package-level functions - facade over a default Executor
// ---------------------------------------------------------------------------

var (
	defaultExecutor     *Executor
	defaultExecutorOnce sync.Once
)

// getDefaultExecutor returns the lazily-initialized default executor.
func getDefaultExecutor() *Executor {
	defaultExecutorOnce.Do(func() {
		defaultExecutor = NewExecutor()
	})
	return defaultExecutor
}

