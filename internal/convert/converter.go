// Package convert assembles source audio into a chaptered m4b with ffmpeg.
//
// A conversion classifies the input, measures every file, picks a join
// method, renders the chapter metadata, builds one ffmpeg command and commits
// its output atomically. All scratch files live in a directory scoped to the
// call and removed on every exit path.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/concat"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/metadata"
	"github.com/alnah/go-audiobook/internal/probe"
)

// WarnFunc is a callback for advisory messages such as chapter findings.
// Set to nil to suppress warnings, or provide a custom handler.
type WarnFunc func(msg string)

// defaultWarnFunc writes warnings to stderr.
func defaultWarnFunc(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// tempDirPattern names the per-conversion scratch directory.
const tempDirPattern = "go-audiobook-*"

// Converter runs the assembly pipeline.
type Converter struct {
	resolve    func(ffmpeg.Tool) (string, error)
	classify   func(path string) (input.Type, error)
	prober     probe.Prober
	run        ffmpegRunner
	fs         fileSystem
	logger     *slog.Logger
	warn       WarnFunc
	progress   ProgressFunc
	parallel   int
	importTags bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithResolver sets the tool resolver (for testing).
func WithResolver(fn func(ffmpeg.Tool) (string, error)) Option {
	return func(c *Converter) { c.resolve = fn }
}

// WithClassifier sets the input classifier (for testing).
func WithClassifier(fn func(path string) (input.Type, error)) Option {
	return func(c *Converter) { c.classify = fn }
}

// WithProber sets the prober. Without it ffprobe is resolved per conversion.
func WithProber(p probe.Prober) Option {
	return func(c *Converter) { c.prober = p }
}

// WithFFmpegRunner sets the process runner (for testing).
func WithFFmpegRunner(r ffmpegRunner) Option {
	return func(c *Converter) { c.run = r }
}

// WithFileSystem sets the file system implementation (for testing).
func WithFileSystem(fs fileSystem) Option {
	return func(c *Converter) { c.fs = fs }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWarnFunc sets the warning callback. Pass nil to suppress warnings.
func WithWarnFunc(fn WarnFunc) Option {
	return func(c *Converter) { c.warn = fn }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Converter) { c.progress = fn }
}

// WithParallelProbes bounds concurrent ffprobe processes.
func WithParallelProbes(n int) Option {
	return func(c *Converter) { c.parallel = n }
}

// WithTagImport fills missing book fields and the cover from the first
// source file's tags.
func WithTagImport(enabled bool) Option {
	return func(c *Converter) { c.importTags = enabled }
}

// New creates a Converter with production defaults.
func New(opts ...Option) *Converter {
	c := &Converter{
		resolve:  ffmpeg.Resolve,
		classify: input.Detect,
		run:      ffmpeg.NewExecutor(),
		fs:       osFileSystem{},
		logger:   slog.New(slog.DiscardHandler),
		warn:     defaultWarnFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs one conversion and returns the final output path.
// Classification and probing failures abort before any output is touched.
// Chapter findings are reported through the warn callback and never block.
func (c *Converter) Convert(ctx context.Context, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	log := c.logger.With("component", "convert", "run_id", uuid.NewString())

	ffmpegPath, err := c.resolve(ffmpeg.FFmpeg)
	if err != nil {
		return "", err
	}

	in, err := c.classify(cfg.InputPath)
	if err != nil {
		return "", err
	}
	files := in.Files()
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %s", input.ErrNoAudioFiles, cfg.InputPath)
	}
	log.Info("input classified", "type", TypeName(in), "files", len(files))

	prober, err := c.proberFor()
	if err != nil {
		return "", err
	}
	params, err := probe.ProbeAll(ctx, prober, files, c.parallel)
	if err != nil {
		return "", err
	}
	totalMs := lo.SumBy(params, func(p probe.Params) int64 { return p.DurationMs })

	var method concat.Method
	if _, ok := in.(input.Directory); ok {
		method = concat.SelectFromParams(params, cfg.Options.NormalizeVolume)
		log.Info("concat method selected", "method", method.String())
	}

	book := metadata.Normalize(cfg.Book)
	var embedded *metadata.Picture
	if c.importTags {
		tags, pic, err := metadata.ReadTags(files[0])
		if err != nil {
			c.warnf("Warning: tag import skipped: %v", err)
		} else {
			book = book.Merge(tags)
			embedded = pic
		}
	}

	chapters := cfg.Chapters
	if len(chapters) == 0 {
		chapters = defaultChapters(in, files, params, book)
	}
	for _, issue := range chapter.Validate(chapters, &totalMs) {
		c.warnf("Warning: %s", issue)
		log.Warn("chapter finding", "issue", issue)
	}

	tempDir, err := c.fs.MkdirTemp("", tempDirPattern)
	if err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}
	defer func() { _ = c.fs.RemoveAll(tempDir) }()

	coverPath, err := c.stageCover(ctx, ffmpegPath, cfg, embedded, tempDir)
	if err != nil {
		return "", err
	}

	planCfg := cfg
	planCfg.Book = book
	cmd, err := NewBuilder(WithBuilderFileSystem(c.fs)).Build(Plan{
		Input:     in,
		Method:    method,
		First:     params[0],
		Config:    planCfg,
		Chapters:  chapters,
		CoverPath: coverPath,
		TempDir:   tempDir,
	})
	if err != nil {
		return "", err
	}
	log.Debug("ffmpeg command", "path", ffmpegPath, "args", strings.Join(cmd.Args, " "))

	exec := executor{ffmpegPath: ffmpegPath, run: c.run, fs: c.fs}
	out, err := exec.Execute(ctx, cmd, progressParser(totalMs, defaultProgressStep, c.progress))
	if err != nil {
		log.Error("conversion failed", "error", err)
		return "", err
	}

	log.Info("conversion complete", "output", out, "duration_ms", totalMs, "chapters", len(chapters))
	return out, nil
}

func (c *Converter) proberFor() (probe.Prober, error) {
	if c.prober != nil {
		return c.prober, nil
	}
	path, err := c.resolve(ffmpeg.FFprobe)
	if err != nil {
		return nil, err
	}
	return probe.New(probe.WithPath(path)), nil
}

// stageCover returns the prepared cover path, or "" when there is no cover.
func (c *Converter) stageCover(ctx context.Context, ffmpegPath string, cfg Config, embedded *metadata.Picture, tempDir string) (string, error) {
	src := cfg.CoverPath
	if src == "" && embedded != nil {
		var err error
		if src, err = writeEmbedded(c.fs, embedded, tempDir); err != nil {
			return "", err
		}
	}
	if src == "" {
		return "", nil
	}

	prep := coverPreparer{ffmpegPath: ffmpegPath, run: c.run, fs: c.fs}
	return prep.Prepare(ctx, src, cfg.Options.MaxCoverSize, tempDir)
}

func (c *Converter) warnf(format string, args ...any) {
	if c.warn != nil {
		c.warn(fmt.Sprintf(format, args...))
	}
}

// defaultChapters is used when the request carries no chapter list:
// one chapter per file for directories, one chapter for a single file, and
// none for a container so its embedded chapters pass through.
func defaultChapters(in input.Type, files []string, params []probe.Params, book metadata.Book) []chapter.Chapter {
	switch in.(type) {
	case input.Directory:
		durations := lo.Map(params, func(p probe.Params, _ int) int64 { return p.DurationMs })
		return chapter.FromDurations(files, durations)
	case input.SingleAudioFile:
		title := book.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(files[0]), filepath.Ext(files[0]))
		}
		return []chapter.Chapter{{Title: title, DurationMs: params[0].DurationMs}}
	default:
		return nil
	}
}

// TypeName names an input type for logs and messages.
func TypeName(in input.Type) string {
	switch in.(type) {
	case input.SingleContainer:
		return "container"
	case input.Directory:
		return "directory"
	case input.SingleAudioFile:
		return "audio file"
	default:
		return "unknown"
	}
}
