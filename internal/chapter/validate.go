package chapter

import "fmt"

// gapThresholdMs is the smallest gap between chapters worth reporting.
const gapThresholdMs = 1000

// Validate returns human-readable findings about a chapter list. It never
// fails: callers decide whether to act on the findings. totalMs is optional.
//
// Chapters are numbered from 1, except in gap findings, which name the
// previous chapter by its 0-based index and the current one by its 1-based
// number. Existing consumers match on that wording.
func Validate(chapters []Chapter, totalMs *int64) []string {
	var issues []string

	for i, c := range chapters {
		n := i + 1

		if totalMs != nil {
			if c.StartMs >= *totalMs {
				issues = append(issues, fmt.Sprintf("Chapter %d starts after end of audio", n))
			} else if c.EndMs() > *totalMs {
				issues = append(issues, fmt.Sprintf("Chapter %d extends beyond end of audio", n))
			}
		}

		if i > 0 {
			expected := chapters[i-1].EndMs()
			switch {
			case c.StartMs > expected:
				if gap := c.StartMs - expected; gap > gapThresholdMs {
					issues = append(issues, fmt.Sprintf("Gap of %.1fs between chapters %d and %d",
						float64(gap)/1000, i, n))
				}
			case c.StartMs < expected:
				issues = append(issues, fmt.Sprintf("Chapter %d overlaps with previous chapter", n))
			}
		}

		if c.DurationMs == 0 {
			issues = append(issues, fmt.Sprintf("Chapter %d has zero duration", n))
		}
	}

	return issues
}
