// Package probe measures audio files and reads container chapter tables with ffprobe.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
)

const (
	// defaultSampleRate is assumed when ffprobe omits sample_rate.
	defaultSampleRate = 44100

	// defaultChannels is assumed when neither channels nor a known layout is reported.
	defaultChannels = 2

	// defaultParallel bounds concurrent ffprobe processes in ProbeAll.
	defaultParallel = 4
)

// Params describes the measured properties of one audio file.
type Params struct {
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    int64 // bits per second, 0 when unknown
	DurationMs int64
}

// HasBitrate reports whether ffprobe reported a bitrate.
func (p Params) HasBitrate() bool {
	return p.Bitrate > 0
}

// ChapterEntry is one raw entry of a container's native chapter table.
type ChapterEntry struct {
	TimeBase string // rational "num/den"
	Start    int64
	End      int64
	Title    string
}

// Prober measures audio files.
type Prober interface {
	Probe(ctx context.Context, path string) (Params, error)
}

// Compile-time interface implementation check.
var _ Prober = (*FFprobe)(nil)

// FFprobe measures files by running the ffprobe binary in JSON mode.
type FFprobe struct {
	path string
	cmd  commandRunner
}

// Option configures an FFprobe.
type Option func(*FFprobe)

// WithPath sets the ffprobe binary path, skipping resolution.
func WithPath(path string) Option {
	return func(f *FFprobe) { f.path = path }
}

// WithCommandRunner sets the command runner (for testing).
func WithCommandRunner(r commandRunner) Option {
	return func(f *FFprobe) { f.cmd = r }
}

// New creates an FFprobe. Without WithPath the binary is located with
// ffmpeg.Resolve on first use.
func New(opts ...Option) *FFprobe {
	f := &FFprobe{cmd: osCommandRunner{}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ffprobe JSON output. Numeric fields arrive as strings.
type probeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
	BitRate       string `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Chapters []struct {
		TimeBase string `json:"time_base"`
		Start    int64  `json:"start"`
		End      int64  `json:"end"`
		Tags     struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"chapters"`
}

// Probe measures codec, sample rate, channels, bitrate and duration of the
// first audio stream in path. Duration comes from the container's decimal
// seconds so that sums over many files do not drift.
func (f *FFprobe) Probe(ctx context.Context, path string) (Params, error) {
	out, err := f.run(ctx, path, "-show_format", "-show_streams")
	if err != nil {
		return Params{}, err
	}
	return parseParams(out, path)
}

// Chapters reads the native chapter table of a container.
func (f *FFprobe) Chapters(ctx context.Context, path string) ([]ChapterEntry, error) {
	out, err := f.run(ctx, path, "-show_chapters")
	if err != nil {
		return nil, err
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: invalid JSON: %v", ErrProbeFailed, path, err)
	}

	entries := make([]ChapterEntry, len(parsed.Chapters))
	for i, c := range parsed.Chapters {
		entries[i] = ChapterEntry{
			TimeBase: c.TimeBase,
			Start:    c.Start,
			End:      c.End,
			Title:    c.Tags.Title,
		}
	}
	return entries, nil
}

// run invokes ffprobe in quiet JSON mode with the given -show_* sections.
func (f *FFprobe) run(ctx context.Context, path string, sections ...string) ([]byte, error) {
	bin := f.path
	if bin == "" {
		resolved, err := ffmpeg.Resolve(ffmpeg.FFprobe)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
		}
		bin = resolved
	}

	args := append([]string{"-v", "quiet", "-print_format", "json"}, sections...)
	args = append(args, inputArg(path))

	out, err := f.cmd.Output(ctx, bin, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("probe %s: %w", path, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			return nil, fmt.Errorf("%w: %s: ffprobe exited with code %d: %s",
				ErrProbeFailed, path, exitErr.ExitCode(), stderr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrProbeFailed, path, err)
	}
	return out, nil
}

// inputArg keeps a path that starts with "-" from being parsed as an option.
func inputArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "./" + path
	}
	return path
}

// parseParams extracts Params from ffprobe -show_format -show_streams JSON.
func parseParams(out []byte, path string) (Params, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return Params{}, fmt.Errorf("%w: %s: invalid JSON: %v", ErrProbeFailed, path, err)
	}

	stream, found := lo.Find(parsed.Streams, func(s probeStream) bool {
		return s.CodecType == "audio"
	})
	if !found {
		return Params{}, fmt.Errorf("%w: %s: no audio stream", ErrProbeFailed, path)
	}
	if stream.CodecName == "" {
		return Params{}, fmt.Errorf("%w: %s: missing codec_name", ErrProbeFailed, path)
	}

	if parsed.Format.Duration == "" {
		return Params{}, fmt.Errorf("%w: %s: missing format.duration", ErrProbeFailed, path)
	}
	seconds, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Params{}, fmt.Errorf("%w: %s: invalid duration %q", ErrProbeFailed, path, parsed.Format.Duration)
	}

	sampleRate := defaultSampleRate
	if v, err := strconv.Atoi(stream.SampleRate); err == nil && v > 0 {
		sampleRate = v
	}

	bitrate := parseBitrate(stream.BitRate)
	if bitrate == 0 {
		bitrate = parseBitrate(parsed.Format.BitRate)
	}

	return Params{
		Codec:      stream.CodecName,
		SampleRate: sampleRate,
		Channels:   channelCount(stream.Channels, stream.ChannelLayout),
		Bitrate:    bitrate,
		DurationMs: int64(math.Round(seconds * 1000)),
	}, nil
}

// channelCount prefers the explicit count, then the layout label, then stereo.
func channelCount(channels int, layout string) int {
	if channels > 0 {
		return channels
	}
	switch strings.ToLower(layout) {
	case "stereo", "2.0":
		return 2
	case "mono", "1.0":
		return 1
	}
	return defaultChannels
}

func parseBitrate(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// ---------------------------------------------------------------------------
// Batch helpers
// ---------------------------------------------------------------------------

// ProbeAll probes files concurrently with at most parallel ffprobe processes
// and returns results in input order. Any failure fails the whole call.
func ProbeAll(ctx context.Context, p Prober, files []string, parallel int) ([]Params, error) {
	if parallel <= 0 {
		parallel = defaultParallel
	}

	results := make([]Params, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, file := range files {
		g.Go(func() error {
			params, err := p.Probe(gctx, file)
			if err != nil {
				return err
			}
			results[i] = params
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TotalDuration sums the durations of files. No partial result is returned
// when any probe fails.
func TotalDuration(ctx context.Context, p Prober, files []string) (int64, error) {
	params, err := ProbeAll(ctx, p, files, defaultParallel)
	if err != nil {
		return 0, err
	}
	return lo.SumBy(params, func(p Params) int64 { return p.DurationMs }), nil
}
