// Package concat chooses how multiple audio files are joined and renders the
// inputs each join method needs.
package concat

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/alnah/go-audiobook/internal/probe"
)

// LoudnormFilter is the EBU R128 loudness normalization stage.
const LoudnormFilter = "loudnorm=I=-16:TP=-1.5:LRA=11"

// OutputPad is the label of the filter graph's audio output.
const OutputPad = "[out]"

// Method is a join strategy. The concrete types are Demuxer and FilterGraph.
type Method interface {
	fmt.Stringer
	isMethod()
}

// Demuxer joins byte-compatible streams without re-encoding.
type Demuxer struct{}

// FilterGraph decodes every input and re-encodes the joined stream.
type FilterGraph struct{}

func (Demuxer) String() string { return "demuxer" }
func (FilterGraph) String() string { return "filter graph" }

func (Demuxer) isMethod() {}
func (FilterGraph) isMethod() {}

// Select picks the join method for files. Normalization always needs the
// filter graph. Otherwise every file's codec, sample rate and channel count
// must match the first file for the demuxer to be used.
func Select(ctx context.Context, p probe.Prober, files []string, normalize bool) (Method, error) {
	if normalize {
		return FilterGraph{}, nil
	}
	if len(files) == 0 {
		return Demuxer{}, nil
	}

	ref, err := p.Probe(ctx, files[0])
	if err != nil {
		return nil, err
	}

	for _, file := range files[1:] {
		params, err := p.Probe(ctx, file)
		if err != nil {
			return nil, err
		}
		if !compatible(ref, params) {
			return FilterGraph{}, nil
		}
	}
	return Demuxer{}, nil
}

// SelectFromParams is Select over already-measured files.
func SelectFromParams(params []probe.Params, normalize bool) Method {
	if normalize {
		return FilterGraph{}
	}
	if len(params) == 0 {
		return Demuxer{}
	}
	if lo.EveryBy(params[1:], func(p probe.Params) bool { return compatible(params[0], p) }) {
		return Demuxer{}
	}
	return FilterGraph{}
}

func compatible(a, b probe.Params) bool {
	return a.Codec == b.Codec && a.SampleRate == b.SampleRate && a.Channels == b.Channels
}

// List renders a concat demuxer list: one "file '<path>'" line per file with
// embedded single quotes escaped as '\''.
func List(files []string) string {
	var b strings.Builder
	for _, f := range files {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(f, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// Graph renders a concat filter graph over n inputs, e.g.
// "[0:a][1:a]concat=n=2:v=0:a=1[out]". With normalize the joined stream is
// passed through the loudness filter before reaching the output pad.
func Graph(n int, normalize bool) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "[%d:a]", i)
	}
	if normalize {
		fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[joined];[joined]%s%s", n, LoudnormFilter, OutputPad)
	} else {
		fmt.Fprintf(&b, "concat=n=%d:v=0:a=1%s", n, OutputPad)
	}
	return b.String()
}
