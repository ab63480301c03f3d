// Package chapter models a book's chapter timeline: generation from source
// files, extraction from a container, advisory validation and ripple shifts.
package chapter

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-audiobook/internal/probe"
)

// UntitledChapter is the title given to container chapters without one.
const UntitledChapter = "Untitled Chapter"

// Chapter is one chapter marker. Times are milliseconds.
// Ordering and non-overlap are enforced by the algorithms in this package,
// not by the type.
type Chapter struct {
	Title      string
	StartMs    int64
	DurationMs int64
	Locked     bool
}

// EndMs returns the chapter's end time.
func (c Chapter) EndMs() int64 {
	return c.StartMs + c.DurationMs
}

// Reader reads a container's native chapter table.
type Reader interface {
	Chapters(ctx context.Context, path string) ([]probe.ChapterEntry, error)
}

// GenerateFromFiles builds one chapter per file, titled after the file's base
// name. Chapter n starts at the sum of the durations of files [0, n).
func GenerateFromFiles(ctx context.Context, p probe.Prober, files []string) ([]Chapter, error) {
	params, err := probe.ProbeAll(ctx, p, files, 0)
	if err != nil {
		return nil, err
	}
	return FromDurations(files, durations(params)), nil
}

// FromDurations builds contiguous chapters from files and their durations.
func FromDurations(files []string, durationsMs []int64) []Chapter {
	chapters := make([]Chapter, len(files))
	var start int64
	for i, f := range files {
		chapters[i] = Chapter{
			Title:      strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)),
			StartMs:    start,
			DurationMs: durationsMs[i],
		}
		start += durationsMs[i]
	}
	return chapters
}

func durations(params []probe.Params) []int64 {
	out := make([]int64, len(params))
	for i, p := range params {
		out[i] = p.DurationMs
	}
	return out
}

// ExtractFromContainer converts a container's chapter table to chapters.
// Each timestamp is converted with ms = value*num*1000/den, truncated.
func ExtractFromContainer(ctx context.Context, r Reader, path string) ([]Chapter, error) {
	entries, err := r.Chapters(ctx, path)
	if err != nil {
		return nil, err
	}

	chapters := make([]Chapter, 0, len(entries))
	for i, e := range entries {
		num, den, err := parseTimeBase(e.TimeBase)
		if err != nil {
			return nil, fmt.Errorf("chapter %d: %w", i+1, err)
		}
		start := toMs(e.Start, num, den)
		end := toMs(e.End, num, den)

		title := e.Title
		if title == "" {
			title = UntitledChapter
		}
		chapters = append(chapters, Chapter{
			Title:      title,
			StartMs:    start,
			DurationMs: max(end-start, 0),
		})
	}
	return chapters, nil
}

func parseTimeBase(tb string) (num, den int64, err error) {
	n, d, ok := strings.Cut(tb, "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeBase, tb)
	}
	num, errNum := strconv.ParseInt(n, 10, 64)
	den, errDen := strconv.ParseInt(d, 10, 64)
	if errNum != nil || errDen != nil || num <= 0 || den <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeBase, tb)
	}
	return num, den, nil
}

func toMs(value, num, den int64) int64 {
	return value * num * 1000 / den
}

// Total returns the end of the latest-ending chapter.
func Total(chapters []Chapter) int64 {
	var total int64
	for _, c := range chapters {
		total = max(total, c.EndMs())
	}
	return total
}
