// Package input classifies a conversion source into one of three shapes.
package input

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// containerExt is the chaptered container treated as pass-through input.
const containerExt = ".m4b"

// audioExts lists the extensions accepted as audio input (lowercase).
var audioExts = []string{
	".aac", ".flac", ".m4a", ".m4b", ".mp3", ".mp4", ".oga", ".ogg", ".opus", ".wav", ".wma",
}

// Type is the classified shape of an input path.
// The concrete types are SingleContainer, Directory and SingleAudioFile.
type Type interface {
	// Files returns the audio files in assembly order.
	Files() []string
	isType()
}

// SingleContainer is an already-chaptered container, used as pass-through.
type SingleContainer struct {
	Path string
}

// Directory is an ordered list of audio files to concatenate.
type Directory struct {
	Paths []string
}

// SingleAudioFile is one raw audio file.
type SingleAudioFile struct {
	Path string
}

func (c SingleContainer) Files() []string { return []string{c.Path} }
func (d Directory) Files() []string { return d.Paths }
func (a SingleAudioFile) Files() []string { return []string{a.Path} }

func (SingleContainer) isType() {}
func (Directory) isType() {}
func (SingleAudioFile) isType() {}

// IsAudioFile reports whether name has a known audio extension.
func IsAudioFile(name string) bool {
	return slices.Contains(audioExts, strings.ToLower(filepath.Ext(name)))
}

// Classifier detects input types against a file system.
type Classifier struct {
	fs fileSystem
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFileSystem sets the file system implementation (for testing).
func WithFileSystem(f fileSystem) Option {
	return func(c *Classifier) { c.fs = f }
}

// NewClassifier creates a Classifier backed by the OS by default.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{fs: osFileSystem{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Detect classifies path. Directory files are collected non-recursively and
// sorted in ascending lexicographic order, which is the assembly order.
func (c *Classifier) Detect(path string) (Type, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if info.IsDir() {
		return c.detectDirectory(path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == containerExt:
		return SingleContainer{Path: path}, nil
	case IsAudioFile(path):
		return SingleAudioFile{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, path)
	}
}

func (c *Classifier) detectDirectory(dir string) (Type, error) {
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsAudioFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAudioFiles, dir)
	}

	slices.Sort(files)
	return Directory{Paths: files}, nil
}

// Detect classifies path using the OS file system.
func Detect(path string) (Type, error) {
	return NewClassifier().Detect(path)
}
