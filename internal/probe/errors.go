package probe

import "errors"

// ErrProbeFailed indicates ffprobe could not measure a file: the tool is
// missing, it exited non-zero, or its JSON lacked a required field.
var ErrProbeFailed = errors.New("probe failed")
