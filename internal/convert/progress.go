package convert

import (
	"strconv"
	"strings"

	"github.com/alnah/go-audiobook/internal/ffmpeg"
)

// ProgressFunc receives the completion percentage of a running conversion.
type ProgressFunc func(percent float64)

// defaultProgressStep is the percentage bucket between two reports.
const defaultProgressStep = 5

// progressKeys are the keys ffmpeg's -progress output emits.
var progressKeys = map[string]bool{
	"frame": true, "fps": true, "stream_0_0_q": true, "bitrate": true,
	"total_size": true, "out_time_us": true, "out_time_ms": true, "out_time": true,
	"dup_frames": true, "drop_frames": true, "speed": true, "progress": true,
}

func isProgressLine(line string) bool {
	key, _, ok := strings.Cut(line, "=")
	return ok && progressKeys[key]
}

// stripProgress removes -progress lines from captured stderr so error
// reports show ffmpeg's diagnostics only.
func stripProgress(stderr string) string {
	var b strings.Builder
	for _, line := range strings.Split(stderr, "\n") {
		if line == "" || isProgressLine(line) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// progressParser turns -progress lines into percentages of totalMs and
// reports each time a new step bucket is reached. "progress=end" reports 100.
func progressParser(totalMs int64, step float64, cb ProgressFunc) ffmpeg.LineFunc {
	if step <= 0 {
		step = defaultProgressStep
	}
	lastBucket := -1

	return func(line string) {
		if cb == nil {
			return
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return
		}

		var percent float64
		switch key {
		case "out_time_us":
			us, err := strconv.ParseInt(value, 10, 64)
			if err != nil || us < 0 || totalMs <= 0 {
				return
			}
			percent = min(float64(us)/1000/float64(totalMs)*100, 100)
		case "progress":
			if value != "end" {
				return
			}
			percent = 100
		default:
			return
		}

		bucket := int(percent / step)
		if bucket <= lastBucket {
			return
		}
		lastBucket = bucket
		cb(percent)
	}
}
