package metadata

import "errors"

// ErrNoTags indicates a source file without readable tags.
var ErrNoTags = errors.New("no readable tags")
