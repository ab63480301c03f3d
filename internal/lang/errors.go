package lang

import "errors"

// ErrInvalid indicates an invalid language tag was specified.
var ErrInvalid = errors.New("invalid language code")
