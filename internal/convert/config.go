package convert

import (
	"fmt"
	"strings"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/metadata"
)

// Codec selects the audio encoding of the output.
type Codec string

// Supported codecs.
const (
	CodecCopy Codec = "copy"
	CodecAAC  Codec = "aac"
	CodecOpus Codec = "opus"
)

// ParseCodec parses a codec name, case-insensitively. Empty means AAC.
func ParseCodec(s string) (Codec, error) {
	switch Codec(strings.ToLower(strings.TrimSpace(s))) {
	case "", CodecAAC:
		return CodecAAC, nil
	case CodecOpus:
		return CodecOpus, nil
	case CodecCopy, "passthrough", "pass-through":
		return CodecCopy, nil
	}
	return "", fmt.Errorf("%w: %q (use aac, opus or copy)", ErrInvalidCodec, s)
}

// Encoder returns the ffmpeg encoder name.
func (c Codec) Encoder() string {
	switch c {
	case CodecOpus:
		return "libopus"
	case CodecCopy:
		return "copy"
	default:
		return "aac"
	}
}

// Defaults.
const (
	// DefaultMaxCoverSize is the longest cover edge in pixels.
	DefaultMaxCoverSize = 1400

	// fallbackBitrate is used when neither an override nor a probed bitrate exists.
	fallbackBitrate = 64000

	// fallbackChannels is used when neither an override nor a probed count exists.
	fallbackChannels = 2
)

// ProcessingOptions tune how the output is produced.
type ProcessingOptions struct {
	NormalizeVolume bool
	// RewriteChapters makes the generated chapter list replace any chapters
	// embedded in the source.
	RewriteChapters bool
	// MaxCoverSize bounds the cover's longest edge; 0 embeds it unscaled.
	MaxCoverSize int
	// AtomicWrite renders to a sibling temp file and renames it on success.
	AtomicWrite bool
}

// DefaultProcessingOptions returns the options used by the CLI.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		MaxCoverSize: DefaultMaxCoverSize,
		AtomicWrite:  true,
	}
}

// Config is one conversion request. The pipeline never modifies it.
type Config struct {
	InputPath  string
	OutputPath string
	Book       metadata.Book
	CoverPath  string
	Chapters   []chapter.Chapter
	Bitrate    int64 // bits per second, 0 = from source
	Channels   int   // 0 = from source
	Codec      Codec
	Options    ProcessingOptions
}

// Validate checks the fields the pipeline cannot default.
func (c Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfig)
	}
	if c.Bitrate < 0 {
		return fmt.Errorf("%w: bitrate must be positive", ErrInvalidConfig)
	}
	if c.Channels < 0 {
		return fmt.Errorf("%w: channels must be positive", ErrInvalidConfig)
	}
	if c.Options.MaxCoverSize < 0 {
		return fmt.Errorf("%w: max cover size must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseCodec(string(c.Codec)); err != nil {
		return err
	}
	return nil
}
