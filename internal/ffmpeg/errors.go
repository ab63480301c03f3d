package ffmpeg

import "errors"

// ErrNotFound indicates an ffmpeg or ffprobe binary could not be located.
var ErrNotFound = errors.New("tool not found")

// ErrProcessFailed indicates an ffmpeg or ffprobe process exited with a non-zero status.
// The concrete error is an *ExitError carrying the exit code and captured stderr.
var ErrProcessFailed = errors.New("process exited with non-zero status")
