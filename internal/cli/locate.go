package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/timeline"
)

// LocateCmd creates the locate command.
func LocateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <input> <timestamp>",
		Short: "Find the source file and offset for a position in the book",
		Long: `Map a position in the assembled book back to a source file and an offset
inside it. Positions on a file boundary belong to the next file; positions at
or past the end belong to the end of the last file.

The output is tab-separated: file, offset, file number.`,
		Example: `  audiobook locate ./chapters 01:23:45
  audiobook locate ./chapters 90m`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd.Context(), env, args[0], args[1])
		},
	}
}

func runLocate(ctx context.Context, env *Env, path, timestamp string) error {
	ms, err := format.ParseTimestamp(timestamp)
	if err != nil {
		return err
	}

	in, err := input.Detect(path)
	if err != nil {
		return err
	}
	prober, err := newProber(env)
	if err != nil {
		return err
	}
	m, err := timeline.FromFiles(ctx, prober, in.Files())
	if err != nil {
		return err
	}

	pos, ok := m.Resolve(ms)
	if !ok {
		return fmt.Errorf("%w: %s", input.ErrNoAudioFiles, path)
	}
	if total := m.TotalMs(); ms > total {
		fmt.Fprintf(env.Stderr, "Warning: %s is past the end of the book (%s)\n",
			format.Timestamp(ms), format.Timestamp(total))
	}

	fmt.Fprintf(env.Stdout, "%s\t%s\t%d\n", pos.File, format.Timestamp(pos.OffsetMs), pos.Index+1)
	return nil
}
