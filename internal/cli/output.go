package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// warnNonM4BExtension writes a warning to w if path has an extension other
// than .m4b. The container is MP4 regardless of what the user named it.
func warnNonM4BExtension(w io.Writer, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".m4b" {
		label := ext
		if label == "" {
			label = "no"
		}
		_, _ = fmt.Fprintf(w, "Warning: output is an MP4 audiobook regardless of %s extension\n", label)
	}
}

// checkOutputFree fails with ErrOutputExists when path already exists.
func checkOutputFree(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("cannot access output file: %w", err)
	}
}

// lockOutput takes an exclusive advisory lock next to the output file so two
// runs cannot render the same book at once. The returned func releases it.
// The lock file is left in place: unlinking it would let a late opener lock
// the orphaned inode while another run locks a fresh file.
func lockOutput(output string) (func(), error) {
	lockPath := output + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0750); err != nil { // #nosec G301 -- user output dir
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}

	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversionLocked, output)
	}

	return func() { _ = lock.Unlock() }, nil
}

// parseBitrate accepts a plain number of bits per second or a k/K suffix
// for kilobits ("64k" = 64000). Empty means "from source".
func parseBitrate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	digits, mult := s, int64(1)
	if strings.HasSuffix(s, "k") || strings.HasSuffix(s, "K") {
		digits, mult = s[:len(s)-1], 1000
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q (e.g. 64k or 64000)", ErrInvalidBitrate, s)
	}
	return n * mult, nil
}
