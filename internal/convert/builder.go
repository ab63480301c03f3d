package convert

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/concat"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/lang"
	"github.com/alnah/go-audiobook/internal/metadata"
	"github.com/alnah/go-audiobook/internal/probe"
)

const (
	// filterScriptThreshold is the input count above which the filter graph
	// is written to a script file instead of the command line.
	filterScriptThreshold = 50

	concatListName   = "concat.txt"
	filterScriptName = "filter.txt"
	metadataName     = "metadata.txt"
)

// Plan is everything the builder needs for one conversion.
type Plan struct {
	Input     input.Type
	Method    concat.Method // only consulted for input.Directory
	First     probe.Params  // measured params of the first input file
	Config    Config
	Chapters  []chapter.Chapter
	CoverPath string // prepared cover image, empty for none
	TempDir   string // scratch directory owned by the caller
}

// Command is a fully built ffmpeg invocation.
type Command struct {
	Args []string
	// OutputPath is where ffmpeg writes; it differs from FinalPath when the
	// write is atomic.
	OutputPath string
	FinalPath  string
}

// Atomic reports whether the command writes to a temp file.
func (c Command) Atomic() bool {
	return c.OutputPath != c.FinalPath
}

// Builder assembles ffmpeg argument vectors and writes their side files.
type Builder struct {
	fs fileSystem
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuilderFileSystem sets the file system implementation (for testing).
func WithBuilderFileSystem(fs fileSystem) BuilderOption {
	return func(b *Builder) { b.fs = fs }
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{fs: osFileSystem{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TempOutputPath returns the sibling temp name that keeps the extension,
// e.g. "book.m4b" -> "book.tmp.m4b".
func TempOutputPath(final string) string {
	ext := filepath.Ext(final)
	return strings.TrimSuffix(final, ext) + ".tmp" + ext
}

// Build writes the concat list, filter script and metadata document into
// p.TempDir, creates the output directory and returns the command.
func (b *Builder) Build(p Plan) (Command, error) {
	cfg := p.Config

	if err := b.fs.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
		return Command{}, fmt.Errorf("create output directory: %w", err)
	}
	out := cfg.OutputPath
	if cfg.Options.AtomicWrite {
		out = TempOutputPath(out)
	}

	args := []string{"-hide_banner", "-nostdin", "-y", "-progress", "pipe:2", "-nostats"}

	// Audio inputs.
	var audioInputs int
	var graphFiles []string
	switch in := p.Input.(type) {
	case input.Directory:
		if _, ok := p.Method.(concat.FilterGraph); ok {
			for _, f := range in.Paths {
				args = append(args, "-i", f)
			}
			audioInputs = len(in.Paths)
			graphFiles = in.Paths
			break
		}
		// The demuxer resolves relative entries against the list's own directory.
		entries, err := absPaths(in.Paths)
		if err != nil {
			return Command{}, fmt.Errorf("resolve concat list entries: %w", err)
		}
		listPath := filepath.Join(p.TempDir, concatListName)
		if err := b.fs.WriteFile(listPath, []byte(concat.List(entries)), 0o600); err != nil {
			return Command{}, fmt.Errorf("write concat list: %w", err)
		}
		args = append(args, "-f", "concat", "-safe", "0", "-i", listPath)
		audioInputs = 1
	case input.SingleContainer, input.SingleAudioFile:
		args = append(args, "-i", in.Files()[0])
		audioInputs = 1
	default:
		return Command{}, fmt.Errorf("%w: unknown input type %T", ErrInvalidConfig, p.Input)
	}
	useGraph := graphFiles != nil

	// Metadata input, always present.
	metaPath := filepath.Join(p.TempDir, metadataName)
	doc := metadata.ChapterFile(cfg.Book, p.Chapters)
	if err := b.fs.WriteFile(metaPath, []byte(doc), 0o600); err != nil {
		return Command{}, fmt.Errorf("write chapter metadata: %w", err)
	}
	args = append(args, "-f", "ffmetadata", "-i", metaPath)
	metaIndex := audioInputs

	// Cover input.
	coverIndex := -1
	if p.CoverPath != "" {
		args = append(args, "-i", p.CoverPath)
		coverIndex = metaIndex + 1
	}

	normalize := cfg.Options.NormalizeVolume

	// Audio mapping.
	if useGraph {
		graph := concat.Graph(len(graphFiles), normalize)
		if len(graphFiles) > filterScriptThreshold {
			scriptPath := filepath.Join(p.TempDir, filterScriptName)
			if err := b.fs.WriteFile(scriptPath, []byte(graph), 0o600); err != nil {
				return Command{}, fmt.Errorf("write filter script: %w", err)
			}
			args = append(args, "-filter_complex_script", scriptPath)
		} else {
			args = append(args, "-filter_complex", graph)
		}
		args = append(args, "-map", concat.OutputPad)
	} else {
		args = append(args, "-map", "0:a:0")
	}

	args = append(args, "-map_metadata", strconv.Itoa(metaIndex))
	if cfg.Options.RewriteChapters {
		args = append(args, "-map_chapters", strconv.Itoa(metaIndex))
	}
	if coverIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("%d:v", coverIndex))
	}

	// Audio encoding.
	codec := effectiveCodec(cfg.Codec, useGraph || normalize)
	args = append(args, "-c:a", codec.Encoder())
	if codec != CodecCopy {
		args = append(args,
			"-b:a", strconv.FormatInt(resolveBitrate(cfg.Bitrate, p.First), 10),
			"-ac", strconv.Itoa(resolveChannels(cfg.Channels, p.First)),
		)
	}

	if coverIndex >= 0 {
		args = append(args, "-c:v", "copy", "-disposition:v:0", "attached_pic", "-b:v", "0")
	}

	if normalize && !useGraph {
		args = append(args, "-af", concat.LoudnormFilter)
	}

	args = append(args, metadata.TagArgs(cfg.Book)...)
	if iso := lang.ISO3(cfg.Book.Language); iso != "" {
		args = append(args, "-metadata:s:a:0", "language="+iso)
	}

	args = append(args, "-f", "mp4", outputArg(out))

	return Command{Args: args, OutputPath: out, FinalPath: cfg.OutputPath}, nil
}

// outputArg keeps an output path that starts with "-" from being parsed as
// an option. Inputs are safe: they always follow -i.
func outputArg(path string) string {
	if strings.HasPrefix(path, "-") {
		return "./" + path
	}
	return path
}

// effectiveCodec falls back to AAC when pass-through is impossible because
// the audio has to be decoded anyway.
func effectiveCodec(c Codec, decoded bool) Codec {
	if c == "" {
		return CodecAAC
	}
	if c == CodecCopy && decoded {
		return CodecAAC
	}
	return c
}

// resolveBitrate picks override, then the first input's bitrate, then the fallback.
func resolveBitrate(override int64, first probe.Params) int64 {
	if override > 0 {
		return override
	}
	if first.HasBitrate() {
		return first.Bitrate
	}
	return fallbackBitrate
}

// resolveChannels picks override, then the first input's channels, then stereo.
func resolveChannels(override int, first probe.Params) int {
	if override > 0 {
		return override
	}
	if first.Channels > 0 {
		return first.Channels
	}
	return fallbackChannels
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out[i] = abs
	}
	return out, nil
}
