package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/concat"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ProbeCmd creates the probe command.
func ProbeCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <input>",
		Short: "Show the audio parameters of the files a conversion would use",
		Long: `Show codec, sample rate, channels, bitrate and duration of every audio file
in the input, in assembly order, and the concat method a conversion would pick.`,
		Example: `  audiobook probe ./chapters
  audiobook probe book.m4b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), env, args[0])
		},
	}
}

func runProbe(ctx context.Context, env *Env, path string) error {
	in, err := input.Detect(path)
	if err != nil {
		return err
	}
	files := in.Files()

	prober, err := newProber(env)
	if err != nil {
		return err
	}
	params, err := probe.ProbeAll(ctx, prober, files, 0)
	if err != nil {
		return err
	}

	rows := make([][]string, len(files))
	for i, p := range params {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			filepath.Base(files[i]),
			p.Codec,
			strconv.Itoa(p.SampleRate),
			strconv.Itoa(p.Channels),
			format.Bitrate(p.Bitrate),
			format.Timestamp(p.DurationMs),
		}
	}
	total := lo.SumBy(params, func(p probe.Params) int64 { return p.DurationMs })
	footer := []string{"", "Total", "", "", "", "", format.Timestamp(total)}

	fmt.Fprintln(env.Stdout, renderTable(env.Stdout,
		[]string{"#", "File", "Codec", "Rate", "Ch", "Bitrate", "Duration"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
		footer,
	))

	if _, ok := in.(input.Directory); ok {
		method := concat.SelectFromParams(params, false)
		fmt.Fprintf(env.Stdout, "Concat method: %s\n", method)
	}
	return nil
}

// newProber resolves ffprobe and builds a prober from the environment.
func newProber(env *Env) (MediaProber, error) {
	path, err := env.FFmpegResolver.Resolve(ffmpeg.FFprobe)
	if err != nil {
		return nil, err
	}
	return env.ProberFactory.NewProber(path), nil
}
