// Package format renders durations, timestamps and sizes for terminal output.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimestamp indicates a string that is neither clock notation nor a duration.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// DurationHuman formats a duration for human display.
// Examples: "2h", "30m", "1h30m", "45s"
func DurationHuman(d time.Duration) string {
	if d >= time.Hour {
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	return fmt.Sprintf("%ds", d/time.Second)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// Timestamp formats milliseconds as HH:MM:SS.mmm, the form chapter tables use.
func Timestamp(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, h, m, s, ms%1000)
}

// Bitrate formats bits per second as kb/s, or "-" when unknown.
func Bitrate(bps int64) string {
	if bps <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d kb/s", bps/1000)
}

// ParseTimestamp parses "[[HH:]MM:]SS[.mmm]" or a Go duration such as "1m30s"
// into milliseconds. A leading "-" negates either form.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	ms, err := parseClock(body)
	if err != nil {
		d, derr := time.ParseDuration(body)
		if derr != nil || d < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
		}
		ms = d.Milliseconds()
	}
	if neg {
		ms = -ms
	}
	return ms, nil
}

// parseClock parses colon-separated clock notation.
func parseClock(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, ErrInvalidTimestamp
	}

	secPart := parts[len(parts)-1]
	whole, frac, _ := strings.Cut(secPart, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || sec < 0 {
		return 0, ErrInvalidTimestamp
	}
	var millis int64
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		if millis, err = strconv.ParseInt(frac, 10, 64); err != nil || millis < 0 {
			return 0, ErrInvalidTimestamp
		}
	}
	if len(parts) > 1 && sec >= 60 {
		return 0, ErrInvalidTimestamp
	}

	total := sec*1000 + millis
	unit := int64(60_000)
	for i := len(parts) - 2; i >= 0; i-- {
		v, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || v < 0 {
			return 0, ErrInvalidTimestamp
		}
		if i > 0 && v >= 60 {
			return 0, ErrInvalidTimestamp
		}
		total += v * unit
		unit *= 60
	}
	return total, nil
}
