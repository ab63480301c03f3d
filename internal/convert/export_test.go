package convert

// Export internal symbols for testing.
// This file is only compiled during tests (suffix _test.go).

import (
	"context"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/metadata"
)

// FFmpegRunner exports ffmpegRunner for mocks.
type FFmpegRunner = ffmpegRunner

// FileSystem exports fileSystem for mocks.
type FileSystem = fileSystem

// LastLines exports lastLines.
var LastLines = lastLines

// StripProgress exports stripProgress.
var StripProgress = stripProgress

// ProgressParser exports progressParser.
var ProgressParser = progressParser

// EffectiveCodec exports effectiveCodec.
var EffectiveCodec = effectiveCodec

// ScaleFilter exports scaleFilter.
var ScaleFilter = scaleFilter

// Execute runs the executor with the given dependencies.
func Execute(ctx context.Context, run ffmpegRunner, fs fileSystem, cmd Command, onLine ffmpeg.LineFunc) (string, error) {
	return executor{ffmpegPath: "ffmpeg", run: run, fs: fs}.Execute(ctx, cmd, onLine)
}

// PrepareCover runs the cover preparer with the given dependencies.
func PrepareCover(ctx context.Context, run ffmpegRunner, fs fileSystem, src string, maxSize int, tempDir string) (string, error) {
	return coverPreparer{ffmpegPath: "ffmpeg", run: run, fs: fs}.Prepare(ctx, src, maxSize, tempDir)
}

// WriteEmbedded exports writeEmbedded.
func WriteEmbedded(fs fileSystem, pic *metadata.Picture, tempDir string) (string, error) {
	return writeEmbedded(fs, pic, tempDir)
}
