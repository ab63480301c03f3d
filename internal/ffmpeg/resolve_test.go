package ffmpeg

// Notes:
// - White-box tests with mock fileStatter and envProvider; no real binaries needed
// - Paths are built with filepath.Join so expectations hold on every OS

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockStatter struct {
	existing map[string]bool
}

func (m mockStatter) Stat(name string) (os.FileInfo, error) {
	if m.existing[name] {
		return nil, nil
	}
	return nil, fs.ErrNotExist
}

type mockEnv struct {
	vars     map[string]string
	home     string
	homeErr  error
	pathBins map[string]string
}

func (m mockEnv) Getenv(key string) string { return m.vars[key] }

func (m mockEnv) UserHomeDir() (string, error) { return m.home, m.homeErr }

func (m mockEnv) LookPath(file string) (string, error) {
	if p, ok := m.pathBins[file]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

// ---------------------------------------------------------------------------
// Resolver.Resolve - precedence
// ---------------------------------------------------------------------------

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	home := filepath.Join("home", "reader")
	installed := filepath.Join(home, ".go-audiobook", "bin")

	tests := []struct {
		name     string
		tool     Tool
		env      mockEnv
		existing map[string]bool
		want     string
		wantErr  error
	}{
		{
			name:     "env var wins",
			tool:     FFmpeg,
			env:      mockEnv{vars: map[string]string{"FFMPEG_PATH": "/opt/ffmpeg"}, home: home},
			existing: map[string]bool{"/opt/ffmpeg": true},
			want:     "/opt/ffmpeg",
		},
		{
			name:    "env var set but missing",
			tool:    FFmpeg,
			env:     mockEnv{vars: map[string]string{"FFMPEG_PATH": "/opt/missing"}, home: home},
			wantErr: ErrNotFound,
		},
		{
			name:     "ffprobe next to FFMPEG_PATH",
			tool:     FFprobe,
			env:      mockEnv{vars: map[string]string{"FFMPEG_PATH": filepath.Join("opt", "bin", "ffmpeg")}, home: home},
			existing: map[string]bool{filepath.Join("opt", "bin", "ffprobe"): true},
			want:     filepath.Join("opt", "bin", "ffprobe"),
		},
		{
			name:     "install dir before PATH",
			tool:     FFprobe,
			env:      mockEnv{home: home, pathBins: map[string]string{"ffprobe": "/usr/bin/ffprobe"}},
			existing: map[string]bool{filepath.Join(installed, "ffprobe"): true},
			want:     filepath.Join(installed, "ffprobe"),
		},
		{
			name: "system PATH",
			tool: FFmpeg,
			env:  mockEnv{home: home, pathBins: map[string]string{"ffmpeg": "/usr/bin/ffmpeg"}},
			want: "/usr/bin/ffmpeg",
		},
		{
			name: "home dir error still falls back to PATH",
			tool: FFmpeg,
			env:  mockEnv{homeErr: errors.New("no home"), pathBins: map[string]string{"ffmpeg": "/usr/bin/ffmpeg"}},
			want: "/usr/bin/ffmpeg",
		},
		{
			name:    "nothing found",
			tool:    FFprobe,
			env:     mockEnv{home: home},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewResolver(
				WithEnvProvider(tt.env),
				WithFileStatter(mockStatter{existing: tt.existing}),
				WithPlatform("linux"),
			)

			got, err := r.Resolve(tt.tool)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%s) error = %v, want %v", tt.tool, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%s) unexpected error: %v", tt.tool, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%s) = %q, want %q", tt.tool, got, tt.want)
			}
		})
	}
}

func TestResolver_WindowsBinaryName(t *testing.T) {
	t.Parallel()

	home := filepath.Join("C:", "Users", "reader")
	want := filepath.Join(home, ".go-audiobook", "bin", "ffmpeg.exe")

	r := NewResolver(
		WithEnvProvider(mockEnv{home: home}),
		WithFileStatter(mockStatter{existing: map[string]bool{want: true}}),
		WithPlatform("windows"),
	)

	got, err := r.Resolve(FFmpeg)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolver_NotFoundMessageMentionsEnvVar(t *testing.T) {
	t.Parallel()

	for _, goos := range []string{"darwin", "linux", "windows", "plan9"} {
		r := NewResolver(
			WithEnvProvider(mockEnv{home: "h"}),
			WithFileStatter(mockStatter{}),
			WithPlatform(goos),
		)
		_, err := r.Resolve(FFprobe)
		if err == nil || !strings.Contains(err.Error(), "FFPROBE_PATH") {
			t.Errorf("Resolve() on %s error = %v, want mention of FFPROBE_PATH", goos, err)
		}
	}
}
