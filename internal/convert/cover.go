package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-audiobook/internal/metadata"
)

// coverPreparer stages a cover image in the conversion's temp directory.
type coverPreparer struct {
	ffmpegPath string
	run        ffmpegRunner
	fs         fileSystem
}

// Prepare places a copy of src in tempDir scaled so that neither edge exceeds
// maxSize, keeping the aspect ratio and never upscaling. With maxSize 0 the
// file is copied byte for byte and ffmpeg is not invoked.
func (c coverPreparer) Prepare(ctx context.Context, src string, maxSize int, tempDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(src))

	if maxSize == 0 {
		data, err := c.fs.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("read cover: %w", err)
		}
		dst := filepath.Join(tempDir, "cover"+ext)
		if err := c.fs.WriteFile(dst, data, 0o600); err != nil {
			return "", fmt.Errorf("copy cover: %w", err)
		}
		return dst, nil
	}

	if ext != ".png" {
		ext = ".jpg"
	}
	dst := filepath.Join(tempDir, "cover"+ext)
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", src,
		"-vf", scaleFilter(maxSize),
		"-frames:v", "1",
		dst,
	}
	if _, err := c.run.Run(ctx, c.ffmpegPath, args, nil); err != nil {
		return "", fmt.Errorf("scale cover: %w", err)
	}
	return dst, nil
}

// scaleFilter fits the image inside a max x max box without upscaling.
func scaleFilter(maxSize int) string {
	return fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", maxSize, maxSize)
}

// writeEmbedded saves a picture read from source tags so it can be prepared
// like a user-supplied cover.
func writeEmbedded(fs fileSystem, pic *metadata.Picture, tempDir string) (string, error) {
	ext := pic.Ext
	if ext == "" {
		ext = "jpg"
	}
	dst := filepath.Join(tempDir, "embedded."+ext)
	if err := fs.WriteFile(dst, pic.Data, 0o600); err != nil {
		return "", fmt.Errorf("write embedded cover: %w", err)
	}
	return dst, nil
}
