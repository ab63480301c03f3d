package concat_test

// Notes:
// - Select is driven by a map-backed prober; no ffprobe required
// - Graph and List outputs are compared as exact strings since ffmpeg parses them

import (
	"context"
	"errors"
	"testing"

	"github.com/alnah/go-audiobook/internal/concat"
	"github.com/alnah/go-audiobook/internal/probe"
)

type mapProber map[string]probe.Params

func (m mapProber) Probe(ctx context.Context, path string) (probe.Params, error) {
	p, ok := m[path]
	if !ok {
		return probe.Params{}, probe.ErrProbeFailed
	}
	return p, nil
}

var (
	mp3Stereo = probe.Params{Codec: "mp3", SampleRate: 44100, Channels: 2, DurationMs: 1000}
	mp3Mono   = probe.Params{Codec: "mp3", SampleRate: 44100, Channels: 1, DurationMs: 1000}
	mp3Hi     = probe.Params{Codec: "mp3", SampleRate: 48000, Channels: 2, DurationMs: 1000}
	aacStereo = probe.Params{Codec: "aac", SampleRate: 44100, Channels: 2, DurationMs: 1000}
)

// ---------------------------------------------------------------------------
// Select
// ---------------------------------------------------------------------------

func TestSelect(t *testing.T) {
	t.Parallel()

	prober := mapProber{
		"a.mp3": mp3Stereo, "b.mp3": mp3Stereo, "mono.mp3": mp3Mono,
		"hi.mp3": mp3Hi, "c.m4a": aacStereo,
	}

	tests := []struct {
		name      string
		files     []string
		normalize bool
		want      concat.Method
	}{
		{name: "matching files use demuxer", files: []string{"a.mp3", "b.mp3"}, want: concat.Demuxer{}},
		{name: "single file uses demuxer", files: []string{"a.mp3"}, want: concat.Demuxer{}},
		{name: "codec mismatch", files: []string{"a.mp3", "c.m4a"}, want: concat.FilterGraph{}},
		{name: "sample rate mismatch", files: []string{"a.mp3", "hi.mp3"}, want: concat.FilterGraph{}},
		{name: "channel mismatch", files: []string{"a.mp3", "b.mp3", "mono.mp3"}, want: concat.FilterGraph{}},
		{name: "normalize forces filter graph", files: []string{"a.mp3", "b.mp3"}, normalize: true, want: concat.FilterGraph{}},
		{name: "normalize single file", files: []string{"a.mp3"}, normalize: true, want: concat.FilterGraph{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := concat.Select(context.Background(), prober, tt.files, tt.normalize)
			if err != nil {
				t.Fatalf("Select() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelect_NormalizeSkipsProbing(t *testing.T) {
	t.Parallel()

	got, err := concat.Select(context.Background(), mapProber{}, []string{"missing.mp3"}, true)
	if err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}
	if got != (concat.FilterGraph{}) {
		t.Errorf("Select() = %v, want filter graph", got)
	}
}

func TestSelect_ProbeFailure(t *testing.T) {
	t.Parallel()

	_, err := concat.Select(context.Background(), mapProber{"a.mp3": mp3Stereo}, []string{"a.mp3", "gone.mp3"}, false)
	if !errors.Is(err, probe.ErrProbeFailed) {
		t.Errorf("Select() error = %v, want ErrProbeFailed", err)
	}
}

func TestSelectFromParams(t *testing.T) {
	t.Parallel()

	if got := concat.SelectFromParams([]probe.Params{mp3Stereo, mp3Stereo}, false); got != (concat.Demuxer{}) {
		t.Errorf("SelectFromParams(matching) = %v", got)
	}
	if got := concat.SelectFromParams([]probe.Params{mp3Stereo, aacStereo}, false); got != (concat.FilterGraph{}) {
		t.Errorf("SelectFromParams(mismatch) = %v", got)
	}
	if got := concat.SelectFromParams([]probe.Params{mp3Stereo}, true); got != (concat.FilterGraph{}) {
		t.Errorf("SelectFromParams(normalize) = %v", got)
	}
}

// ---------------------------------------------------------------------------
// List / Graph
// ---------------------------------------------------------------------------

func TestList(t *testing.T) {
	t.Parallel()

	got := concat.List([]string{"/books/01.mp3", "/books/Harry's Book/02.mp3"})
	want := "file '/books/01.mp3'\nfile '/books/Harry'\\''s Book/02.mp3'\n"
	if got != want {
		t.Errorf("List() = %q, want %q", got, want)
	}

	if got := concat.List(nil); got != "" {
		t.Errorf("List(nil) = %q, want empty", got)
	}
}

func TestGraph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n         int
		normalize bool
		want      string
	}{
		{n: 3, want: "[0:a][1:a][2:a]concat=n=3:v=0:a=1[out]"},
		{n: 1, want: "[0:a]concat=n=1:v=0:a=1[out]"},
		{
			n:         2,
			normalize: true,
			want:      "[0:a][1:a]concat=n=2:v=0:a=1[joined];[joined]loudnorm=I=-16:TP=-1.5:LRA=11[out]",
		},
	}

	for _, tt := range tests {
		if got := concat.Graph(tt.n, tt.normalize); got != tt.want {
			t.Errorf("Graph(%d, %v) = %q, want %q", tt.n, tt.normalize, got, tt.want)
		}
	}
}
