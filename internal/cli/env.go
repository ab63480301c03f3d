package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/config"
	"github.com/alnah/go-audiobook/internal/convert"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/probe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	FFmpegResolver   FFmpegResolver
	ConfigLoader     ConfigLoader
	ConverterFactory ConverterFactory
	ProberFactory    ProberFactory
}

// FFmpegResolver resolves the paths to the ffmpeg and ffprobe binaries.
type FFmpegResolver interface {
	Resolve(tool ffmpeg.Tool) (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string)
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Converter runs one audiobook conversion.
type Converter interface {
	Convert(ctx context.Context, cfg convert.Config) (string, error)
}

// ConverterFactory creates converters.
type ConverterFactory interface {
	NewConverter(opts ...convert.Option) Converter
}

// MediaProber measures audio files and reads container chapter tables.
type MediaProber interface {
	probe.Prober
	chapter.Reader
}

// ProberFactory creates probers bound to an ffprobe binary.
type ProberFactory interface {
	NewProber(ffprobePath string) MediaProber
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithFFmpegResolver sets the tool resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithConverterFactory sets the converter factory.
func WithConverterFactory(f ConverterFactory) EnvOption {
	return func(e *Env) {
		e.ConverterFactory = f
	}
}

// WithProberFactory sets the prober factory.
func WithProberFactory(f ProberFactory) EnvOption {
	return func(e *Env) {
		e.ProberFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		Now:              time.Now,
		FFmpegResolver:   &defaultFFmpegResolver{},
		ConfigLoader:     &defaultConfigLoader{},
		ConverterFactory: &defaultConverterFactory{},
		ProberFactory:    &defaultProberFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultFFmpegResolver implements FFmpegResolver using the ffmpeg package.
type defaultFFmpegResolver struct{}

func (defaultFFmpegResolver) Resolve(tool ffmpeg.Tool) (string, error) {
	return ffmpeg.Resolve(tool)
}

func (defaultFFmpegResolver) CheckVersion(ctx context.Context, ffmpegPath string) {
	ffmpeg.CheckVersion(ctx, ffmpegPath)
}

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultConverterFactory implements ConverterFactory using the convert package.
type defaultConverterFactory struct{}

func (defaultConverterFactory) NewConverter(opts ...convert.Option) Converter {
	return convert.New(opts...)
}

// defaultProberFactory implements ProberFactory with ffprobe.
type defaultProberFactory struct{}

func (defaultProberFactory) NewProber(ffprobePath string) MediaProber {
	return probe.New(probe.WithPath(ffprobePath))
}

// Compile-time interface verification.
var (
	_ FFmpegResolver   = (*defaultFFmpegResolver)(nil)
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ ConverterFactory = (*defaultConverterFactory)(nil)
	_ ProberFactory    = (*defaultProberFactory)(nil)
	_ Converter        = (*convert.Converter)(nil)
)
