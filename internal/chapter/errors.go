package chapter

import "errors"

// ErrOverlapConflict indicates a ripple shift was refused because it would
// overlap the previous chapter. The chapter list is left unchanged.
var ErrOverlapConflict = errors.New("chapter overlap conflict")

// ErrInvalidIndex indicates a chapter index outside the list.
var ErrInvalidIndex = errors.New("invalid chapter index")

// ErrInvalidTimeBase indicates a container chapter time base that is not a
// positive "num/den" rational.
var ErrInvalidTimeBase = errors.New("invalid chapter time base")
