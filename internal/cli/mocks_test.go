package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/convert"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc      func(tool ffmpeg.Tool) (string, error)
	CheckVersionFunc func(ctx context.Context, ffmpegPath string)

	mu           sync.Mutex
	resolveCalls []ffmpeg.Tool
}

func (m *mockFFmpegResolver) Resolve(tool ffmpeg.Tool) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, tool)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(tool)
	}
	return "/usr/bin/" + string(tool), nil
}

func (m *mockFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	if m.CheckVersionFunc != nil {
		m.CheckVersionFunc(ctx, ffmpegPath)
	}
}

func (m *mockFFmpegResolver) ResolveCalls() []ffmpeg.Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ffmpeg.Tool(nil), m.resolveCalls...)
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ConverterFactory + Converter
// ---------------------------------------------------------------------------

type mockConverterFactory struct {
	mockConverter *mockConverter

	mu        sync.Mutex
	optCounts []int // number of options per NewConverter call
}

func (m *mockConverterFactory) NewConverter(opts ...convert.Option) Converter {
	m.mu.Lock()
	m.optCounts = append(m.optCounts, len(opts))
	m.mu.Unlock()

	if m.mockConverter == nil {
		m.mockConverter = &mockConverter{}
	}
	return m.mockConverter
}

func (m *mockConverterFactory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.optCounts)
}

type mockConverter struct {
	ConvertFunc func(ctx context.Context, cfg convert.Config) (string, error)

	mu    sync.Mutex
	calls []convert.Config
}

func (m *mockConverter) Convert(ctx context.Context, cfg convert.Config) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cfg)
	m.mu.Unlock()

	if m.ConvertFunc != nil {
		return m.ConvertFunc(ctx, cfg)
	}
	return cfg.OutputPath, nil
}

func (m *mockConverter) Calls() []convert.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]convert.Config(nil), m.calls...)
}

// ---------------------------------------------------------------------------
// Mock ProberFactory + MediaProber
// ---------------------------------------------------------------------------

type mockProberFactory struct {
	prober *mockProber

	mu    sync.Mutex
	paths []string
}

func (m *mockProberFactory) NewProber(ffprobePath string) MediaProber {
	m.mu.Lock()
	m.paths = append(m.paths, ffprobePath)
	m.mu.Unlock()

	if m.prober == nil {
		m.prober = &mockProber{}
	}
	return m.prober
}

// mockProber answers from maps keyed by path. Unknown paths fail.
type mockProber struct {
	params   map[string]probe.Params
	chapters map[string][]probe.ChapterEntry
	err      error
}

func (m *mockProber) Probe(ctx context.Context, path string) (probe.Params, error) {
	if m.err != nil {
		return probe.Params{}, m.err
	}
	p, ok := m.params[path]
	if !ok {
		return probe.Params{}, fmt.Errorf("%w: %s: not mocked", probe.ErrProbeFailed, path)
	}
	return p, nil
}

func (m *mockProber) Chapters(ctx context.Context, path string) ([]probe.ChapterEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.chapters[path], nil
}
