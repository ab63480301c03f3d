// Package manifest reads and writes book manifests: TOML files that describe
// one conversion, its book metadata and an optional hand-edited chapter list.
//
//	input  = "chapters/"
//	output = "The Hobbit.m4b"
//	cover  = "cover.jpg"
//
//	[book]
//	title  = "The Hobbit"
//	author = "J. R. R. Tolkien"
//
//	[options]
//	codec = "aac"
//	normalize_volume = true
//
//	[[chapters]]
//	title    = "An Unexpected Party"
//	start    = "00:00:00.000"
//	duration = "00:42:10.500"
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/convert"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/metadata"
)

// ErrInvalidManifest indicates a manifest that parses but cannot describe a conversion.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the on-disk description of one book.
type Manifest struct {
	Input    string        `toml:"input,omitempty"`
	Output   string        `toml:"output,omitempty"`
	Cover    string        `toml:"cover,omitempty"`
	Book     metadata.Book `toml:"book"`
	Options  Options       `toml:"options"`
	Chapters []Chapter     `toml:"chapters,omitempty"`
}

// Options mirror convert.ProcessingOptions plus the encoding overrides.
// Pointers distinguish "unset" from an explicit zero or false.
type Options struct {
	Codec           string `toml:"codec,omitempty"`
	Bitrate         int64  `toml:"bitrate,omitempty"`
	Channels        int    `toml:"channels,omitempty"`
	NormalizeVolume bool   `toml:"normalize_volume,omitempty"`
	RewriteChapters bool   `toml:"rewrite_chapters,omitempty"`
	MaxCoverSize    *int   `toml:"max_cover_size,omitempty"`
	AtomicWrite     *bool  `toml:"atomic_write,omitempty"`
}

// Chapter stores times in clock notation so manifests stay hand-editable.
type Chapter struct {
	Title    string `toml:"title"`
	Start    string `toml:"start"`
	Duration string `toml:"duration"`
	Locked   bool   `toml:"locked,omitempty"`
}

// Load decodes the manifest at path. Unknown keys are rejected so typos in
// hand-written files surface instead of being ignored.
func Load(path string) (Manifest, error) {
	var m Manifest

	f, err := os.Open(path) // #nosec G304 -- user-supplied manifest path
	if err != nil {
		return m, fmt.Errorf("open manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return m, fmt.Errorf("%w: %s: %s", ErrInvalidManifest, path, strict.String())
		}
		return m, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}

	if _, err := m.ChapterList(); err != nil {
		return m, err
	}
	return m, nil
}

// Save encodes m to path through a sibling temp file and a rename, so a
// crash never leaves a truncated manifest.
func Save(path string, m Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { // #nosec G306 -- manifests are user documents
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ChapterList converts the stored chapters to the timeline model.
func (m Manifest) ChapterList() ([]chapter.Chapter, error) {
	if len(m.Chapters) == 0 {
		return nil, nil
	}

	out := make([]chapter.Chapter, len(m.Chapters))
	for i, c := range m.Chapters {
		start, err := format.ParseTimestamp(c.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %d start: %w", ErrInvalidManifest, i+1, err)
		}
		dur, err := format.ParseTimestamp(c.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %d duration: %w", ErrInvalidManifest, i+1, err)
		}
		if start < 0 || dur < 0 {
			return nil, fmt.Errorf("%w: chapter %d has a negative time", ErrInvalidManifest, i+1)
		}
		out[i] = chapter.Chapter{Title: c.Title, StartMs: start, DurationMs: dur, Locked: c.Locked}
	}
	return out, nil
}

// SetChapters replaces the stored chapters.
func (m *Manifest) SetChapters(chapters []chapter.Chapter) {
	m.Chapters = FromChapters(chapters)
}

// FromChapters converts timeline chapters to their stored form.
func FromChapters(chapters []chapter.Chapter) []Chapter {
	if len(chapters) == 0 {
		return nil
	}
	out := make([]Chapter, len(chapters))
	for i, c := range chapters {
		out[i] = Chapter{
			Title:    c.Title,
			Start:    format.Timestamp(c.StartMs),
			Duration: format.Timestamp(c.DurationMs),
			Locked:   c.Locked,
		}
	}
	return out
}

// ToConfig builds a conversion request. Relative input, output and cover
// paths are resolved against baseDir, normally the manifest's directory.
func (m Manifest) ToConfig(baseDir string) (convert.Config, error) {
	codec, err := convert.ParseCodec(m.Options.Codec)
	if err != nil {
		return convert.Config{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	chapters, err := m.ChapterList()
	if err != nil {
		return convert.Config{}, err
	}

	opts := convert.DefaultProcessingOptions()
	opts.NormalizeVolume = m.Options.NormalizeVolume
	opts.RewriteChapters = m.Options.RewriteChapters
	if m.Options.MaxCoverSize != nil {
		opts.MaxCoverSize = *m.Options.MaxCoverSize
	}
	if m.Options.AtomicWrite != nil {
		opts.AtomicWrite = *m.Options.AtomicWrite
	}

	return convert.Config{
		InputPath:  resolve(baseDir, m.Input),
		OutputPath: resolve(baseDir, m.Output),
		CoverPath:  resolve(baseDir, m.Cover),
		Book:       m.Book,
		Chapters:   chapters,
		Bitrate:    m.Options.Bitrate,
		Channels:   m.Options.Channels,
		Codec:      codec,
		Options:    opts,
	}, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
