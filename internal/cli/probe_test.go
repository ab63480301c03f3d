package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// Tests for runProbe
// ---------------------------------------------------------------------------

func TestRunProbe_Directory(t *testing.T) {
	t.Parallel()

	env, mocks, stdout, _ := testEnv()
	dir, _ := bookDir(t, mocks.prober.prober, 60_000, 90_500)

	if err := RunProbe(context.Background(), env, dir); err != nil {
		t.Fatalf("RunProbe() unexpected error: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"a.mp3", "b.mp3", "128 kb/s", "44100", "00:01:00.000", "00:02:30.500", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "Concat method: demuxer\n") {
		t.Errorf("stdout = %q, want demuxer concat method", out)
	}
	if len(mocks.prober.paths) != 1 || mocks.prober.paths[0] != "/usr/bin/ffprobe" {
		t.Errorf("prober paths = %v, want [/usr/bin/ffprobe]", mocks.prober.paths)
	}
}

func TestRunProbe_MismatchedFilesNeedFilterGraph(t *testing.T) {
	t.Parallel()

	env, mocks, stdout, _ := testEnv()
	dir, files := bookDir(t, mocks.prober.prober, 1000, 1000)
	p := mocks.prober.prober.params[files[1]]
	p.SampleRate = 22050
	mocks.prober.prober.params[files[1]] = p

	if err := RunProbe(context.Background(), env, dir); err != nil {
		t.Fatalf("RunProbe() unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "Concat method: filter graph\n") {
		t.Errorf("stdout = %q, want filter graph concat method", stdout.String())
	}
}

func TestRunProbe_SingleFileHasNoConcatMethod(t *testing.T) {
	t.Parallel()

	env, mocks, stdout, _ := testEnv()
	_, files := bookDir(t, mocks.prober.prober, 1000)

	if err := RunProbe(context.Background(), env, files[0]); err != nil {
		t.Fatalf("RunProbe() unexpected error: %v", err)
	}
	if strings.Contains(stdout.String(), "Concat method") {
		t.Errorf("stdout = %q, want no concat method for a single file", stdout.String())
	}
}

func TestRunProbe_Errors(t *testing.T) {
	t.Parallel()

	t.Run("ffprobe not found", func(t *testing.T) {
		t.Parallel()

		env, mocks, _, _ := testEnv()
		dir, _ := bookDir(t, mocks.prober.prober, 1000)
		mocks.ffmpegResolver.ResolveFunc = func(ffmpeg.Tool) (string, error) {
			return "", ffmpeg.ErrNotFound
		}

		if err := RunProbe(context.Background(), env, dir); !errors.Is(err, ffmpeg.ErrNotFound) {
			t.Errorf("RunProbe() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		env, _, _, _ := testEnv()
		err := RunProbe(context.Background(), env, t.TempDir()+"/missing")
		if !errors.Is(err, input.ErrInputNotFound) {
			t.Errorf("RunProbe() error = %v, want ErrInputNotFound", err)
		}
	})

	t.Run("probe failure", func(t *testing.T) {
		t.Parallel()

		env, mocks, _, _ := testEnv()
		dir, _ := bookDir(t, mocks.prober.prober, 1000)
		mocks.prober.prober.err = probe.ErrProbeFailed

		if err := RunProbe(context.Background(), env, dir); !errors.Is(err, probe.ErrProbeFailed) {
			t.Errorf("RunProbe() error = %v, want ErrProbeFailed", err)
		}
	})
}
