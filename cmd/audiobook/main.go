package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/cli"
	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/convert"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/lang"
	"github.com/alnah/go-audiobook/internal/manifest"
	"github.com/alnah/go-audiobook/internal/probe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitConversion = 5
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := newRootCmd(env)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "audiobook",
		Short:   "Assemble audio files into a chaptered m4b audiobook",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.ConvertCmd(env))
	rootCmd.AddCommand(cli.ProbeCmd(env))
	rootCmd.AddCommand(cli.ChaptersCmd(env))
	rootCmd.AddCommand(cli.LocateCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// setupErrors are missing or broken external tools.
var setupErrors = []error{
	ffmpeg.ErrNotFound,
}

// validationErrors are problems with what the user asked for.
var validationErrors = []error{
	input.ErrInputNotFound,
	input.ErrUnsupportedFileType,
	input.ErrNoAudioFiles,
	convert.ErrInvalidConfig,
	convert.ErrInvalidCodec,
	manifest.ErrInvalidManifest,
	config.ErrUnknownKey,
	config.ErrInvalidValue,
	config.ErrNotDirectory,
	config.ErrNotWritable,
	lang.ErrInvalid,
	format.ErrInvalidTimestamp,
	chapter.ErrOverlapConflict,
	chapter.ErrInvalidIndex,
	chapter.ErrInvalidTimeBase,
	cli.ErrInputRequired,
	cli.ErrInvalidBitrate,
	cli.ErrInvalidOffset,
	cli.ErrOutputExists,
	cli.ErrConversionLocked,
}

// conversionErrors are failures of ffmpeg or ffprobe on valid input.
var conversionErrors = []error{
	convert.ErrConversionFailed,
	convert.ErrOutputMissingOrEmpty,
	convert.ErrRenameFailed,
	ffmpeg.ErrProcessFailed,
	probe.ErrProbeFailed,
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	switch {
	case isAny(err, setupErrors):
		return ExitSetup
	case isAny(err, validationErrors):
		return ExitValidation
	case isAny(err, conversionErrors):
		return ExitConversion
	}

	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	// Domain sentinels are matched first since their wrapped text can contain the same words.
	if isCobraUsageError(err) {
		return ExitUsage
	}
	return ExitGeneral
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
