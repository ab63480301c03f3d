package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Tool names an external media binary the pipeline depends on.
type Tool string

const (
	// FFmpeg is the encoding tool.
	FFmpeg Tool = "ffmpeg"
	// FFprobe is the probing tool.
	FFprobe Tool = "ffprobe"
)

const (
	// binaryExtWindows is the file extension for Windows executables.
	binaryExtWindows = ".exe"

	// minFFmpegMajorVersion is the minimum supported ffmpeg version.
	// Older builds lack the ffmetadata chapter handling and -filter_complex_script.
	minFFmpegMajorVersion = 4
)

// envVar returns the environment variable that overrides the tool location.
func (t Tool) envVar() string {
	return strings.ToUpper(string(t)) + "_PATH"
}

// ---------------------------------------------------------------------------
// Resolver - testable tool resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds the ffmpeg and ffprobe binaries.
type Resolver struct {
	stat   fileStatter
	env    envProvider
	goos   string
	stderr io.Writer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(res *Resolver) { res.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(res *Resolver) { res.env = e }
}

// WithPlatform sets the target OS (for testing cross-platform behavior).
func WithPlatform(goos string) ResolverOption {
	return func(res *Resolver) { res.goos = goos }
}

// NewResolver creates a Resolver with the given options.
// Uses production defaults if no options are provided.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat:   osFileStatter{},
		env:    osEnvProvider{},
		goos:   runtime.GOOS,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds a tool using the following precedence:
//  1. <TOOL>_PATH environment variable (error if set but invalid)
//  2. ffprobe only: next to the binary named by FFMPEG_PATH
//  3. ~/.go-audiobook/bin/<tool>
//  4. System PATH
//
// Returns ErrNotFound with install instructions when nothing matches.
func (r *Resolver) Resolve(tool Tool) (string, error) {
	if envPath := r.env.Getenv(tool.envVar()); envPath != "" {
		if _, err := r.stat.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found",
				ErrNotFound, tool.envVar(), envPath)
		}
		return envPath, nil
	}

	if tool == FFprobe {
		if ffmpegPath := r.env.Getenv(FFmpeg.envVar()); ffmpegPath != "" {
			sibling := filepath.Join(filepath.Dir(ffmpegPath), r.binaryName(FFprobe))
			if _, err := r.stat.Stat(sibling); err == nil {
				return sibling, nil
			}
		}
	}

	if dir, err := r.installDir(); err == nil {
		candidate := filepath.Join(dir, r.binaryName(tool))
		if _, err := r.stat.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := r.env.LookPath(string(tool)); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s is not installed\n\n%s", ErrNotFound, tool, r.manualInstallInstructions(tool))
}

// installDir returns the directory searched for user-installed binaries.
func (r *Resolver) installDir() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".go-audiobook", "bin"), nil
}

// binaryName returns the platform-specific executable name.
func (r *Resolver) binaryName(tool Tool) string {
	if r.goos == "windows" {
		return string(tool) + binaryExtWindows
	}
	return string(tool)
}

// manualInstallInstructions returns platform-specific instructions.
func (r *Resolver) manualInstallInstructions(tool Tool) string {
	env := tool.envVar()
	switch r.goos {
	case "darwin":
		return `To install FFmpeg (ships ffmpeg and ffprobe):
  brew install ffmpeg

Or set ` + env + ` to your ` + string(tool) + ` binary.`
	case "linux":
		return `To install FFmpeg (ships ffmpeg and ffprobe):
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set ` + env + ` to your ` + string(tool) + ` binary.`
	case "windows":
		return `To install FFmpeg (ships ffmpeg and ffprobe):
  winget install ffmpeg

Or set ` + env + ` to your ` + string(tool) + `.exe.`
	default:
		return `To install FFmpeg, download from https://ffmpeg.org/download.html
Or set ` + env + ` to your ` + string(tool) + ` binary.`
	}
}

// ---------------------------------------------------------------------------
// Package-level functions - facade over a default Resolver
// ---------------------------------------------------------------------------

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// getDefaultResolver returns the lazily-initialized default resolver.
func getDefaultResolver() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// Resolve finds a tool using the default resolver.
func Resolve(tool Tool) (string, error) {
	return getDefaultResolver().Resolve(tool)
}

// VersionChecker verifies FFmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	stderr   io.Writer
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running FFmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionStderr sets the writer for warning messages.
func WithVersionStderr(w io.Writer) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.stderr = w }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: getDefaultExecutor(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check verifies that ffmpeg meets minimum version requirements.
// Prints a warning to stderr if version is below minimum but doesn't fail.
// Returns true if version was successfully checked, false if parsing failed.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) bool {
	output, err := vc.executor.RunOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && output == "" {
		return false
	}

	// "ffmpeg version 6.1.1 Copyright..." or "ffmpeg version n6.1.1..."
	firstLine, _, _ := strings.Cut(output, "\n")
	if firstLine == "" {
		return false
	}

	var major int
	if _, err := fmt.Sscanf(firstLine, "ffmpeg version %d", &major); err != nil {
		if _, err := fmt.Sscanf(firstLine, "ffmpeg version n%d", &major); err != nil {
			return false
		}
	}

	if major < minFFmpegMajorVersion {
		fmt.Fprintf(vc.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minFFmpegMajorVersion)
	}
	return true
}

// CheckVersion verifies that ffmpeg meets minimum version requirements.
func CheckVersion(ctx context.Context, ffmpegPath string) {
	NewVersionChecker().Check(ctx, ffmpegPath)
}
