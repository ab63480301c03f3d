package config

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alnah/go-audiobook/internal/convert"
)

// Config keys.
const (
	KeyOutputDir    = "output-dir"
	KeyCodec        = "codec"
	KeyMaxCoverSize = "max-cover-size"
)

// Environment variable fallbacks.
const (
	EnvOutputDir    = "AUDIOBOOK_OUTPUT_DIR"
	EnvCodec        = "AUDIOBOOK_CODEC"
	EnvMaxCoverSize = "AUDIOBOOK_MAX_COVER_SIZE"
)

// Keys lists every supported key in display order.
var Keys = []string{KeyOutputDir, KeyCodec, KeyMaxCoverSize}

var envByKey = map[string]string{
	KeyOutputDir:    EnvOutputDir,
	KeyCodec:        EnvCodec,
	KeyMaxCoverSize: EnvMaxCoverSize,
}

// ErrUnknownKey indicates a key outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// ErrInvalidValue indicates a value that does not parse for its key.
var ErrInvalidValue = errors.New("invalid config value")

// ErrNotDirectory indicates an output-dir that exists but is a file.
var ErrNotDirectory = errors.New("path is not a directory")

// ErrNotWritable indicates an output-dir the current user cannot write to.
var ErrNotWritable = errors.New("directory is not writable")

// Config holds user configuration loaded from ~/.config/go-audiobook/config.
type Config struct {
	OutputDir string
	Codec     convert.Codec
	// MaxCoverSize is nil when unset; 0 is a valid "do not scale" value.
	MaxCoverSize *int
}

// EnvVar returns the environment fallback for key, or "" for unknown keys.
func EnvVar(key string) string {
	return envByKey[key]
}

// IsKey reports whether key is supported.
func IsKey(key string) bool {
	return slices.Contains(Keys, key)
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-audiobook.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-audiobook"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-audiobook"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	return LoadWith(os.Getenv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(getenv func(string) string) (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if data == nil {
		data = make(map[string]string)
	}

	// Environment variable fallback (only if not set in config).
	for _, key := range Keys {
		if data[key] == "" {
			if v := getenv(envByKey[key]); v != "" {
				data[key] = v
			}
		}
	}

	cfg.OutputDir = data[KeyOutputDir]
	if v := data[KeyCodec]; v != "" {
		codec, err := convert.ParseCodec(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidValue, KeyCodec, err)
		}
		cfg.Codec = codec
	}
	if v := data[KeyMaxCoverSize]; v != "" {
		n, err := parseCoverSize(v)
		if err != nil {
			return cfg, err
		}
		cfg.MaxCoverSize = &n
	}

	return cfg, nil
}

// Validate checks that value is acceptable for key. It does not touch the disk.
func Validate(key, value string) error {
	switch key {
	case KeyOutputDir:
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: output-dir cannot be empty", ErrInvalidValue)
		}
	case KeyCodec:
		if _, err := convert.ParseCodec(value); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
	case KeyMaxCoverSize:
		if _, err := parseCoverSize(value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return nil
}

func parseCoverSize(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidValue, KeyMaxCoverSize, v)
	}
	return n, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, key := range slices.Sorted(maps.Keys(data)) {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, data[key]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
//
// All paths are cleaned using filepath.Clean.
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// DefaultOutputName derives "<name>.m4b" from an input file or directory.
func DefaultOutputName(input string) string {
	base := filepath.Base(filepath.Clean(input))
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "audiobook"
	}
	return base + ".m4b"
}

// EnsureOutputDir checks that d is usable as output-dir, creating it if needed.
// Returns nil if valid, or an error describing the problem.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, d)
	}

	// Check if writable by attempting to create a temp file.
	testFile := filepath.Join(d, ".go-audiobook-write-test")
	f, err := os.Create(testFile) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(testFile)
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	_ = os.Remove(testFile)

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}

// Dir returns the configuration directory path (exported for testing).
func Dir() (string, error) {
	return dir()
}

// ParseFile reads a key=value config file (exported for testing).
func ParseFile(p string) (map[string]string, error) {
	return parseFile(p)
}
