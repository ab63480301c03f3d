package chapter

import "fmt"

// ShiftWithRipple moves chapter index to newStartMs and repositions the
// chapters after it.
//
// Moving forward shifts every unlocked chapter at or after index by the same
// offset, floored at 0. Locked chapters and chapters before index are not
// touched and no overlap check is made against locked neighbors.
//
// Moving backward requires the target to be unlocked and the new start to be
// at or after the previous chapter's end; otherwise ErrOverlapConflict is
// returned and nothing changes. Each later unlocked chapter is then placed at
// the target's new end plus its original gap to the target's old end
// (negative gaps count as 0).
//
// A zero offset is a no-op.
func ShiftWithRipple(chapters []Chapter, index int, newStartMs int64) error {
	if index < 0 || index >= len(chapters) {
		return fmt.Errorf("%w: %d (have %d chapters)", ErrInvalidIndex, index, len(chapters))
	}

	target := chapters[index]
	offset := newStartMs - target.StartMs

	switch {
	case offset == 0:
		return nil
	case offset > 0:
		shiftForward(chapters, index, offset)
		return nil
	default:
		return shiftBackward(chapters, index, newStartMs)
	}
}

func shiftForward(chapters []Chapter, index int, offset int64) {
	for i := index; i < len(chapters); i++ {
		if chapters[i].Locked {
			continue
		}
		chapters[i].StartMs = max(chapters[i].StartMs+offset, 0)
	}
}

func shiftBackward(chapters []Chapter, index int, newStartMs int64) error {
	target := chapters[index]
	if target.Locked {
		return fmt.Errorf("%w: chapter %d is locked", ErrOverlapConflict, index+1)
	}
	if newStartMs < 0 {
		return fmt.Errorf("%w: chapter %d cannot start before 0", ErrOverlapConflict, index+1)
	}
	if index > 0 {
		if prevEnd := chapters[index-1].EndMs(); newStartMs < prevEnd {
			return fmt.Errorf("%w: chapter %d would start at %d ms, before chapter %d ends at %d ms",
				ErrOverlapConflict, index+1, newStartMs, index, prevEnd)
		}
	}

	oldEnd := target.EndMs()
	chapters[index].StartMs = newStartMs
	newEnd := chapters[index].EndMs()

	for i := index + 1; i < len(chapters); i++ {
		if chapters[i].Locked {
			continue
		}
		gap := max(chapters[i].StartMs-oldEnd, 0)
		chapters[i].StartMs = newEnd + gap
	}
	return nil
}
