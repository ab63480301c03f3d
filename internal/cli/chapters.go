package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/alnah/go-audiobook/internal/chapter"
	"github.com/alnah/go-audiobook/internal/format"
	"github.com/alnah/go-audiobook/internal/input"
	"github.com/alnah/go-audiobook/internal/manifest"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ChaptersCmd creates the chapters command with subcommands.
func ChaptersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters",
		Short: "Inspect and edit chapter lists",
		Long: `Inspect and edit chapter lists.

Chapters come from an input (one per file for a directory, the embedded table
for an m4b) or from a manifest. Edits are made on manifests, which convert
reads with --manifest.`,
		Example: `  audiobook chapters list ./chapters --export dune.toml
  audiobook chapters validate --manifest dune.toml
  audiobook chapters shift dune.toml 3 01:02:03.500`,
	}

	cmd.AddCommand(chaptersListCmd(env))
	cmd.AddCommand(chaptersValidateCmd(env))
	cmd.AddCommand(chaptersShiftCmd(env))

	return cmd
}

// chapterSource selects where a chapter list comes from.
type chapterSource struct {
	input        string
	manifestPath string
}

func chaptersListCmd(env *Env) *cobra.Command {
	var (
		src    chapterSource
		export string
	)

	cmd := &cobra.Command{
		Use:   "list [input]",
		Short: "List chapters",
		Long: `List the chapters of an input or a manifest.

With --export, the list is also written to a new manifest that can be edited
and passed to convert --manifest.`,
		Example: `  audiobook chapters list ./chapters
  audiobook chapters list book.m4b --export book.toml
  audiobook chapters list --manifest book.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				src.input = args[0]
			}
			return runChaptersList(cmd.Context(), env, src, export)
		},
	}

	cmd.Flags().StringVarP(&src.manifestPath, "manifest", "m", "", "Read chapters from a manifest")
	cmd.Flags().StringVar(&export, "export", "", "Write the chapters to a new manifest")

	return cmd
}

func chaptersValidateCmd(env *Env) *cobra.Command {
	var src chapterSource

	cmd := &cobra.Command{
		Use:   "validate [input]",
		Short: "Report chapter gaps, overlaps and out-of-range markers",
		Long: `Report problems in a chapter list. Findings are advisory: conversion
still proceeds with them, so the command always succeeds once the chapters load.`,
		Example: `  audiobook chapters validate --manifest book.toml
  audiobook chapters validate book.m4b`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				src.input = args[0]
			}
			return runChaptersValidate(cmd.Context(), env, src)
		},
	}

	cmd.Flags().StringVarP(&src.manifestPath, "manifest", "m", "", "Read chapters from a manifest")

	return cmd
}

func chaptersShiftCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "shift <manifest> <chapter> <start>",
		Short: "Move a chapter and ripple the chapters after it",
		Long: `Move chapter number <chapter> (1-based) to a new start time and reposition
the unlocked chapters after it. The manifest is rewritten in place.

<start> is absolute ("01:02:03.500", "95s") or relative to the current start
with a sign ("+30s", "-2.5s"). Put "--" before a negative offset.
Moving a chapter earlier fails if it is locked or would overlap the chapter
before it.`,
		Example: `  audiobook chapters shift book.toml 3 01:02:03.500
  audiobook chapters shift book.toml 3 +30s
  audiobook chapters shift book.toml 3 -- -5s`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChaptersShift(env, args[0], args[1], args[2])
		},
	}
}

func runChaptersList(ctx context.Context, env *Env, src chapterSource, export string) error {
	if export != "" {
		if err := checkOutputFree(export); err != nil {
			return err
		}
	}

	chapters, _, err := loadChapters(ctx, env, src, false)
	if err != nil {
		return err
	}

	if len(chapters) == 0 {
		fmt.Fprintln(env.Stdout, "No chapters.")
	} else {
		fmt.Fprintln(env.Stdout, chapterTable(env, chapters))
	}

	if export == "" {
		return nil
	}

	m := manifest.Manifest{Input: src.input}
	if abs, err := filepath.Abs(src.input); err == nil && src.input != "" {
		m.Input = abs
	}
	m.SetChapters(chapters)
	if err := manifest.Save(export, m); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Manifest written: %s\n", export)
	return nil
}

func runChaptersValidate(ctx context.Context, env *Env, src chapterSource) error {
	chapters, totalMs, err := loadChapters(ctx, env, src, true)
	if err != nil {
		return err
	}

	issues := chapter.Validate(chapters, totalMs)
	if len(issues) == 0 {
		fmt.Fprintf(env.Stdout, "%d chapters, no issues found.\n", len(chapters))
		return nil
	}
	for _, issue := range issues {
		fmt.Fprintf(env.Stdout, "Warning: %s\n", issue)
	}
	return nil
}

func runChaptersShift(env *Env, manifestPath, number, start string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	chapters, err := m.ChapterList()
	if err != nil {
		return err
	}

	n, err := strconv.Atoi(number)
	if err != nil {
		return fmt.Errorf("%w: %q", chapter.ErrInvalidIndex, number)
	}
	index := n - 1
	if index < 0 || index >= len(chapters) {
		return fmt.Errorf("%w: %d (have %d chapters)", chapter.ErrInvalidIndex, n, len(chapters))
	}

	newStart, err := resolveStart(chapters[index].StartMs, start)
	if err != nil {
		return err
	}
	if err := chapter.ShiftWithRipple(chapters, index, newStart); err != nil {
		return err
	}

	m.SetChapters(chapters)
	if err := manifest.Save(manifestPath, m); err != nil {
		return err
	}

	fmt.Fprintln(env.Stdout, chapterTable(env, chapters))
	fmt.Fprintf(env.Stderr, "Chapter %d moved to %s\n", n, format.Timestamp(chapters[index].StartMs))
	return nil
}

// resolveStart turns an absolute or signed relative time into a start in ms.
func resolveStart(current int64, s string) (int64, error) {
	s = strings.TrimSpace(s)
	sign := int64(0)
	switch {
	case strings.HasPrefix(s, "+"):
		sign, s = 1, s[1:]
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	}

	ms, err := format.ParseTimestamp(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidOffset, err)
	}
	if sign == 0 {
		return ms, nil
	}
	return current + sign*ms, nil
}

// loadChapters reads chapters from a manifest or an input. With measure set,
// the total audio duration is probed too; it is nil when unknown.
func loadChapters(ctx context.Context, env *Env, src chapterSource, measure bool) ([]chapter.Chapter, *int64, error) {
	if src.manifestPath != "" {
		return loadManifestChapters(ctx, env, src, measure)
	}
	if src.input == "" {
		return nil, nil, ErrInputRequired
	}

	in, err := input.Detect(src.input)
	if err != nil {
		return nil, nil, err
	}
	prober, err := newProber(env)
	if err != nil {
		return nil, nil, err
	}

	var chapters []chapter.Chapter
	var params []probe.Params
	switch in := in.(type) {
	case input.SingleContainer:
		if chapters, err = chapter.ExtractFromContainer(ctx, prober, in.Path); err != nil {
			return nil, nil, err
		}
		if measure {
			if params, err = probe.ProbeAll(ctx, prober, in.Files(), 0); err != nil {
				return nil, nil, err
			}
		}
	default:
		files := in.Files()
		if params, err = probe.ProbeAll(ctx, prober, files, 0); err != nil {
			return nil, nil, err
		}
		durations := lo.Map(params, func(p probe.Params, _ int) int64 { return p.DurationMs })
		chapters = chapter.FromDurations(files, durations)
	}

	if params == nil {
		return chapters, nil, nil
	}
	total := lo.SumBy(params, func(p probe.Params) int64 { return p.DurationMs })
	return chapters, &total, nil
}

func loadManifestChapters(ctx context.Context, env *Env, src chapterSource, measure bool) ([]chapter.Chapter, *int64, error) {
	m, err := manifest.Load(src.manifestPath)
	if err != nil {
		return nil, nil, err
	}
	chapters, err := m.ChapterList()
	if err != nil {
		return nil, nil, err
	}

	inputPath := src.input
	if inputPath == "" && m.Input != "" {
		inputPath = m.Input
		if !filepath.IsAbs(inputPath) {
			inputPath = filepath.Join(filepath.Dir(src.manifestPath), inputPath)
		}
	}
	if !measure || inputPath == "" {
		return chapters, nil, nil
	}

	in, err := input.Detect(inputPath)
	if err != nil {
		return nil, nil, err
	}
	prober, err := newProber(env)
	if err != nil {
		return nil, nil, err
	}
	params, err := probe.ProbeAll(ctx, prober, in.Files(), 0)
	if err != nil {
		return nil, nil, err
	}
	total := lo.SumBy(params, func(p probe.Params) int64 { return p.DurationMs })
	return chapters, &total, nil
}

func chapterTable(env *Env, chapters []chapter.Chapter) string {
	rows := make([][]string, len(chapters))
	for i, c := range chapters {
		locked := ""
		if c.Locked {
			locked = "yes"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			c.Title,
			format.Timestamp(c.StartMs),
			format.Timestamp(c.EndMs()),
			format.Timestamp(c.DurationMs),
			locked,
		}
	}
	return renderTable(env.Stdout,
		[]string{"#", "Title", "Start", "End", "Duration", "Locked"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		[]string{"", "Total", "", format.Timestamp(chapter.Total(chapters)), "", ""},
	)
}
