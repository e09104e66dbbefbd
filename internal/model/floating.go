package model

import (
	"errors"
	"strings"
	"time"
)

// FloatingLayout is the canonical naive ISO-8601 form used on the wire.
const FloatingLayout = "2006-01-02T15:04:05"

var floatingLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// Floating keeps t's wall clock and drops its zone.
func Floating(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ParseFloating parses a naive date-time. A trailing "Z" or numeric offset is
// accepted and discarded: the wall clock is kept as written.
func ParseFloating(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty time value")
	}
	s = stripZone(s)
	for _, layout := range floatingLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unsupported time format: " + s)
}

// FormatFloating renders t in FloatingLayout.
func FormatFloating(t time.Time) string {
	return Floating(t).Format(FloatingLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date at 00:00 floating time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
}

func stripZone(s string) string {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return s[:len(s)-1]
	}
	// Offsets only appear after the time part, e.g. 2025-01-06T09:00:00+09:00.
	t := strings.IndexAny(s, "T ")
	if t < 0 {
		return s
	}
	if i := strings.LastIndexAny(s, "+-"); i > t {
		return s[:i]
	}
	return s
}
