package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// Tests for runLocate
// ---------------------------------------------------------------------------

func TestRunLocate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		timestamp string
		wantFile  int // index into the created files
		wantOut   string
	}{
		{"inside first file", "0.25", 0, "00:00:00.250\t1"},
		{"inside second file", "1.5", 1, "00:00:00.500\t2"},
		{"boundary belongs to next file", "1", 1, "00:00:00.000\t2"},
		{"past the end clamps", "1h", 1, "00:00:02.000\t2"},
		{"negative clamps to start", "-5s", 0, "00:00:00.000\t1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, mocks, stdout, _ := testEnv()
			dir, files := bookDir(t, mocks.prober.prober, 1000, 2000)

			if err := RunLocate(context.Background(), env, dir, tt.timestamp); err != nil {
				t.Fatalf("RunLocate(%q) unexpected error: %v", tt.timestamp, err)
			}

			want := files[tt.wantFile] + "\t" + tt.wantOut + "\n"
			if got := stdout.String(); got != want {
				t.Errorf("stdout = %q, want %q", got, want)
			}
		})
	}
}

func TestRunLocate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("bad timestamp", func(t *testing.T) {
		t.Parallel()

		env, mocks, _, _ := testEnv()
		dir, _ := bookDir(t, mocks.prober.prober, 1000)

		err := RunLocate(context.Background(), env, dir, "half past")
		if !errors.Is(err, format.ErrInvalidTimestamp) {
			t.Errorf("RunLocate() error = %v, want ErrInvalidTimestamp", err)
		}
		if len(mocks.ffmpegResolver.ResolveCalls()) != 0 {
			t.Error("ffprobe resolved before the timestamp was validated")
		}
	})

	t.Run("probe failure", func(t *testing.T) {
		t.Parallel()

		env, mocks, _, _ := testEnv()
		dir, _ := bookDir(t, mocks.prober.prober, 1000)
		mocks.prober.prober.err = probe.ErrProbeFailed

		err := RunLocate(context.Background(), env, dir, "0")
		if !errors.Is(err, probe.ErrProbeFailed) {
			t.Errorf("RunLocate() error = %v, want ErrProbeFailed", err)
		}
	})
}
