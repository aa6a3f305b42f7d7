// Package timestamp parses the two timestamp forms a speech recognizer may
// emit for segment boundaries: numeric milliseconds, or subtitle-style
// "HH:MM:SS,mmm" / "HH:MM:SS.mmm" strings.
package timestamp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadTimestamp is returned when the input matches neither the numeric
// nor the HH:MM:SS form.
var ErrBadTimestamp = errors.New("malformed timestamp")

// ParseSeconds normalizes a recognizer timestamp to seconds. It accepts a
// bare millisecond count ("1500"), or "HH:MM:SS,mmm"/"HH:MM:SS.mmm". The
// millisecond field may be missing (treated as 0) or longer than three
// digits (truncated to three).
func ParseSeconds(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("timestamp: %w: empty input", ErrBadTimestamp)
	}

	if !strings.Contains(raw, ":") {
		ms, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
		}
		return ms / 1000.0, nil
	}

	fields := strings.Split(raw, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
	}

	hours, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
	}

	secField := fields[2]
	sepIdx := strings.IndexAny(secField, ",.")
	var seconds int
	var millis int
	if sepIdx < 0 {
		seconds, err = strconv.Atoi(secField)
		if err != nil {
			return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
		}
	} else {
		seconds, err = strconv.Atoi(secField[:sepIdx])
		if err != nil {
			return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
		}
		msField := secField[sepIdx+1:]
		if len(msField) > 3 {
			msField = msField[:3]
		}
		for len(msField) < 3 {
			msField += "0"
		}
		if msField != "" {
			millis, err = strconv.Atoi(msField)
			if err != nil {
				return 0, fmt.Errorf("timestamp: %w: %q", ErrBadTimestamp, raw)
			}
		}
	}

	total := float64(hours*3600+minutes*60+seconds) + float64(millis)/1000.0
	return total, nil
}

// FormatSeconds renders seconds back to "HH:MM:SS,mmm" form, the inverse of
// ParseSeconds for the string representation.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000.0 + 0.5)
	hours := totalMillis / 3_600_000
	totalMillis -= hours * 3_600_000
	minutes := totalMillis / 60_000
	totalMillis -= minutes * 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
