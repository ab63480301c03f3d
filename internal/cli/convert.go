package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/convert"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/interrupt"
	"github.com/alnah/go-audiobook/internal/lang"
	"github.com/alnah/go-audiobook/internal/manifest"
	"github.com/alnah/go-audiobook/internal/metadata"
)

// unsetCoverSize marks --max-cover-size as not given.
const unsetCoverSize = -1

// convertOptions holds the parsed flags of the convert command.
type convertOptions struct {
	input        string
	output       string
	manifestPath string
	book         metadata.Book
	cover        string
	codec        string
	bitrate      string
	channels     int
	normalize    bool
	rewrite      bool
	maxCoverSize int
	importTags   bool
	noAtomic     bool
	force        bool
	verbose      bool
	parallel     int
}

// ConvertCmd creates the convert command.
// The env parameter provides injectable dependencies for testing.
func ConvertCmd(env *Env) *cobra.Command {
	opts := convertOptions{maxCoverSize: unsetCoverSize}

	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Assemble audio files into a chaptered m4b audiobook",
		Long: `Assemble an audiobook from a directory of audio files, a single audio file,
or an existing m4b container.

Directories become one chapter per file, sorted by file name. Files that share
codec, sample rate and channel count are joined without re-encoding the stream
layout; mixed sources go through a filter graph. Book details can come from
flags, from a TOML manifest (--manifest), or from the tags of the first file
(--import-tags). Flags win over the manifest.

Supported inputs: aac, flac, m4a, m4b, mp3, mp4, oga, ogg, opus, wav, wma`,
		Example: `  audiobook convert ./chapters --title "Dune" --author "Frank Herbert"
  audiobook convert book.mp3 -o dune.m4b --cover cover.jpg --codec opus
  audiobook convert --manifest dune.toml
  audiobook convert ./chapters --import-tags --normalize`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.input = args[0]
			}
			return runConvert(cmd.Context(), env, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output file path (default: <input>.m4b)")
	f.StringVarP(&opts.manifestPath, "manifest", "m", "", "TOML manifest with book details and chapters")
	f.StringVar(&opts.book.Title, "title", "", "Book title")
	f.StringVar(&opts.book.Author, "author", "", "Book author")
	f.StringVar(&opts.book.Narrator, "narrator", "", "Narrator")
	f.StringVar(&opts.book.Series, "series", "", "Series name")
	f.StringVar(&opts.book.Genre, "genre", "", "Genre")
	f.StringVar(&opts.book.Publisher, "publisher", "", "Publisher")
	f.StringVar(&opts.book.Year, "year", "", "Publication year")
	f.StringVar(&opts.book.Description, "description", "", "Description")
	f.StringVar(&opts.book.ISBN, "isbn", "", "ISBN")
	f.StringVar(&opts.book.ASIN, "asin", "", "ASIN")
	f.StringVarP(&opts.book.Language, "language", "l", "", "Book language (e.g., en, fr, pt-BR)")
	f.StringVar(&opts.cover, "cover", "", "Cover image (jpg or png)")
	f.StringVar(&opts.codec, "codec", "", "Audio codec: aac, opus, copy (default: aac)")
	f.StringVar(&opts.bitrate, "bitrate", "", "Target bitrate, e.g. 64k (default: from source)")
	f.IntVar(&opts.channels, "channels", 0, "Channel count (default: from source)")
	f.BoolVar(&opts.normalize, "normalize", false, "Normalize loudness (forces re-encoding)")
	f.BoolVar(&opts.rewrite, "rewrite-chapters", false, "Replace chapters embedded in the source")
	f.IntVar(&opts.maxCoverSize, "max-cover-size", unsetCoverSize, "Longest cover edge in pixels, 0 keeps the original")
	f.BoolVar(&opts.importTags, "import-tags", false, "Fill missing book details and cover from the first file's tags")
	f.BoolVar(&opts.noAtomic, "no-atomic", false, "Write the output in place instead of via a temporary file")
	f.BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing output file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline details to stderr")
	f.IntVarP(&opts.parallel, "parallel", "p", 0, "Max concurrent ffprobe processes (default: 4)")

	return cmd
}

// runConvert executes one conversion.
// Validation order: manifest -> input -> codec -> bitrate -> language -> output -> tools
func runConvert(parentCtx context.Context, env *Env, opts convertOptions) error {
	// === VALIDATION (fail-fast) ===

	// 1. Manifest, when given, supplies the base request.
	var req convert.Config
	var m *manifest.Manifest
	if opts.manifestPath != "" {
		loaded, err := manifest.Load(opts.manifestPath)
		if err != nil {
			return err
		}
		req, err = loaded.ToConfig(filepath.Dir(opts.manifestPath))
		if err != nil {
			return err
		}
		m = &loaded
	} else {
		req.Options = convert.DefaultProcessingOptions()
	}

	// 2. Input
	if opts.input != "" {
		req.InputPath = opts.input
	}
	if req.InputPath == "" {
		return ErrInputRequired
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", input.ErrInputNotFound, req.InputPath)
		}
		return fmt.Errorf("cannot access input: %w", err)
	}

	// 3. User config supplies defaults below flags and manifest.
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	// 4. Codec: flag -> manifest -> config -> aac
	codecName := opts.codec
	if codecName == "" && m != nil {
		codecName = m.Options.Codec
	}
	if codecName == "" {
		codecName = string(cfg.Codec)
	}
	if req.Codec, err = convert.ParseCodec(codecName); err != nil {
		return err
	}

	// 5. Numeric overrides
	bitrate, err := parseBitrate(opts.bitrate)
	if err != nil {
		return err
	}
	if bitrate > 0 {
		req.Bitrate = bitrate
	}
	if opts.channels > 0 {
		req.Channels = opts.channels
	}
	switch {
	case opts.maxCoverSize != unsetCoverSize:
		req.Options.MaxCoverSize = opts.maxCoverSize
	case m != nil && m.Options.MaxCoverSize != nil:
		// applied by ToConfig
	case cfg.MaxCoverSize != nil:
		req.Options.MaxCoverSize = *cfg.MaxCoverSize
	}
	req.Options.NormalizeVolume = req.Options.NormalizeVolume || opts.normalize
	req.Options.RewriteChapters = req.Options.RewriteChapters || opts.rewrite
	if opts.noAtomic {
		req.Options.AtomicWrite = false
	}
	if opts.cover != "" {
		req.CoverPath = opts.cover
	}

	// 6. Book details: flags fill over the manifest
	req.Book = opts.book.Merge(req.Book)
	if err := lang.Validate(req.Book.Language); err != nil {
		return err
	}
	req.Book.Language = lang.Normalize(req.Book.Language)

	// 7. Output path (resolve with output-dir, derive default from input if needed)
	if cfg.OutputDir != "" {
		if err := config.EnsureOutputDir(cfg.OutputDir); err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
	}
	output := opts.output
	if output == "" {
		output = req.OutputPath
	}
	req.OutputPath = config.ResolveOutputPath(output, config.ExpandPath(cfg.OutputDir), config.DefaultOutputName(req.InputPath))
	warnNonM4BExtension(env.Stderr, req.OutputPath)
	if !opts.force {
		if err := checkOutputFree(req.OutputPath); err != nil {
			return err
		}
	}

	// === SETUP ===

	ffmpegPath, err := env.FFmpegResolver.Resolve(ffmpeg.FFmpeg)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(parentCtx, ffmpegPath)

	unlock, err := lockOutput(req.OutputPath)
	if err != nil {
		return err
	}
	defer unlock()

	handler, ctx := interrupt.NewHandler(parentCtx)
	defer handler.Stop()

	converter := env.ConverterFactory.NewConverter(converterOptions(env, opts)...)

	// === CONVERSION ===

	fmt.Fprintf(env.Stderr, "Converting %s...\n", req.InputPath)
	start := env.Now()
	out, err := converter.Convert(ctx, req)
	if err != nil {
		if handler.WasInterrupted() {
			return context.Canceled
		}
		return err
	}

	elapsed := format.DurationHuman(env.Now().Sub(start))
	if info, err := os.Stat(out); err == nil {
		fmt.Fprintf(env.Stderr, "Done: %s (%s in %s)\n", out, format.Size(info.Size()), elapsed)
	} else {
		fmt.Fprintf(env.Stderr, "Done: %s (%s)\n", out, elapsed)
	}
	return nil
}

// converterOptions wires the converter to the CLI environment.
func converterOptions(env *Env, opts convertOptions) []convert.Option {
	options := []convert.Option{
		convert.WithResolver(env.FFmpegResolver.Resolve),
		convert.WithWarnFunc(func(msg string) {
			fmt.Fprintln(env.Stderr, msg)
		}),
		convert.WithProgress(func(percent float64) {
			fmt.Fprintf(env.Stderr, "  %3.0f%%\n", percent)
		}),
		convert.WithTagImport(opts.importTags),
	}
	if opts.parallel > 0 {
		options = append(options, convert.WithParallelProbes(opts.parallel))
	}
	if opts.verbose {
		logger := slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		options = append(options, convert.WithLogger(logger))
	}
	return options
}
