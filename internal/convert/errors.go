package convert

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig indicates a conversion request missing required fields.
var ErrInvalidConfig = errors.New("invalid conversion config")

// ErrInvalidCodec indicates an unknown codec name.
var ErrInvalidCodec = errors.New("invalid codec")

// ErrConversionFailed indicates ffmpeg ran but exited with a non-zero code.
var ErrConversionFailed = errors.New("conversion failed")

// ErrOutputMissingOrEmpty indicates ffmpeg reported success but the output
// file is missing or has zero size.
var ErrOutputMissingOrEmpty = errors.New("output missing or empty")

// ErrRenameFailed indicates the temporary output could not be moved to its
// final name.
var ErrRenameFailed = errors.New("rename of temporary output failed")

// ConversionError carries ffmpeg's exit code and full stderr.
type ConversionError struct {
	Code   int
	Stderr string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, lastLines(e.Stderr, 5))
}

// Is reports ErrConversionFailed so callers can match without a type assertion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversionFailed
}

// lastLines returns up to n trailing non-empty lines of s, joined by " | ".
// ffmpeg prints the actual cause at the end of a long banner.
func lastLines(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	if len(lines) == 0 {
		return "no diagnostic output"
	}
	return strings.Join(lines, " | ")
}
