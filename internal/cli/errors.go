package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrInputRequired indicates neither an input argument nor a manifest input was given.
	ErrInputRequired = errors.New("input path is required")

	// ErrInvalidBitrate indicates a bitrate string could not be parsed.
	ErrInvalidBitrate = errors.New("invalid bitrate")

	// ErrInvalidOffset indicates a chapter shift offset could not be parsed.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrOutputExists indicates the output file already exists.
	ErrOutputExists = errors.New("output file already exists")

	// ErrConversionLocked indicates another process is writing the same output.
	ErrConversionLocked = errors.New("output is locked by another conversion")
)
