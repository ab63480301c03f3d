// Package timeline maps a global playback position in a multi-file book to a
// file and an offset inside that file.
package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-audiobook/internal/probe"
)

// ErrLengthMismatch indicates file and duration lists of different lengths.
var ErrLengthMismatch = errors.New("files and durations differ in length")

// Position is a resolved location.
type Position struct {
	Index    int
	File     string
	OffsetMs int64
}

// Map holds files in assembly order with their durations.
type Map struct {
	files     []string
	durations []int64
}

// New builds a Map from parallel lists.
func New(files []string, durationsMs []int64) (*Map, error) {
	if len(files) != len(durationsMs) {
		return nil, fmt.Errorf("%w: %d files, %d durations", ErrLengthMismatch, len(files), len(durationsMs))
	}
	return &Map{
		files:     append([]string(nil), files...),
		durations: append([]int64(nil), durationsMs...),
	}, nil
}

// FromFiles probes files and builds a Map from the measured durations.
func FromFiles(ctx context.Context, p probe.Prober, files []string) (*Map, error) {
	params, err := probe.ProbeAll(ctx, p, files, 0)
	if err != nil {
		return nil, err
	}
	durations := make([]int64, len(params))
	for i, pr := range params {
		durations[i] = pr.DurationMs
	}
	return New(files, durations)
}

// Len returns the number of files.
func (m *Map) Len() int { return len(m.files) }

// TotalMs returns the summed duration.
func (m *Map) TotalMs() int64 {
	var total int64
	for _, d := range m.durations {
		total += d
	}
	return total
}

// Resolve finds the file containing ms. Intervals are half-open, so a
// boundary resolves to the next file at offset 0; the end of the last file
// (and anything past it) resolves to the last file at its full duration.
// Negative timestamps are treated as 0. The result is false only for an
// empty map.
func (m *Map) Resolve(ms int64) (Position, bool) {
	if len(m.files) == 0 {
		return Position{}, false
	}
	ms = max(ms, 0)

	var start int64
	for i, d := range m.durations {
		if ms < start+d {
			return Position{Index: i, File: m.files[i], OffsetMs: ms - start}, true
		}
		start += d
	}

	last := len(m.files) - 1
	return Position{Index: last, File: m.files[last], OffsetMs: m.durations[last]}, true
}
