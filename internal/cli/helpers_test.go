package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	ffmpegResolver *mockFFmpegResolver
	configLoader   *mockConfigLoader
	converter      *mockConverterFactory
	prober         *mockProberFactory
}

func newTestMocks() *testMocks {
	return &testMocks{
		ffmpegResolver: &mockFFmpegResolver{},
		configLoader:   &mockConfigLoader{},
		converter:      &mockConverterFactory{mockConverter: &mockConverter{}},
		prober:         &mockProberFactory{prober: &mockProber{}},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env, the mocks, and the stdout and stderr buffers.
func testEnv() (*Env, *testMocks, *syncBuffer, *syncBuffer) {
	mocks := newTestMocks()
	stdout, stderr := &syncBuffer{}, &syncBuffer{}

	env := &Env{
		Stdout:           stdout,
		Stderr:           stderr,
		Getenv:           staticEnv(nil),
		Now:              fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		FFmpegResolver:   mocks.ffmpegResolver,
		ConfigLoader:     mocks.configLoader,
		ConverterFactory: mocks.converter,
		ProberFactory:    mocks.prober,
	}
	return env, mocks, stdout, stderr
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// writeFile creates a file with placeholder content under dir.
func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake audio content"), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	return path
}

// bookDir creates a directory of audio files and registers their
// durations with the prober.
func bookDir(t *testing.T, prober *mockProber, durationsMs ...int64) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	if prober.params == nil {
		prober.params = make(map[string]probe.Params)
	}

	files := make([]string, len(durationsMs))
	for i, d := range durationsMs {
		files[i] = writeFile(t, dir, string(rune('a'+i))+".mp3")
		prober.params[files[i]] = probe.Params{
			Codec:      "mp3",
			SampleRate: 44100,
			Channels:   2,
			Bitrate:    128000,
			DurationMs: d,
		}
	}
	return dir, files
}

// configWithOutputDir returns a ConfigLoader that returns a config with the given output directory.
func configWithOutputDir(outputDir string) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			return config.Config{OutputDir: outputDir}, nil
		},
	}
}
