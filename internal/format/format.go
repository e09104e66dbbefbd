// Package format renders floating instants as display strings.
package format

import (
	"fmt"
	"strings"
	"time"
)

// ClockFormat is the 12h/24h display preference.
type ClockFormat int

const (
	Clock12 ClockFormat = iota
	Clock24
)

// ParseClock maps "12h"/"24h" (and a few spellings) onto a ClockFormat.
// Unknown values fall back to Clock12.
func ParseClock(s string) ClockFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "24", "24h", "24-hour":
		return Clock24
	default:
		return Clock12
	}
}

func (c ClockFormat) String() string {
	if c == Clock24 {
		return "24h"
	}
	return "12h"
}

// Time renders the time of day, e.g. "09:30 AM" or "09:30".
func Time(t time.Time, c ClockFormat) string {
	if c == Clock24 {
		return t.Format("15:04")
	}
	return t.Format("03:04 PM")
}

// TimeRange renders "start - end". When the range crosses dates the end also
// carries its short date.
func TimeRange(start, end time.Time, c ClockFormat) string {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return Time(start, c) + " - " + Time(end, c)
	}
	return Time(start, c) + " - " + ShortDate(end) + " " + Time(end, c)
}

// Hour labels a timeline row: "12 AM".."11 PM" or "00:00".."23:00".
func Hour(h int, c ClockFormat) string {
	if c == Clock24 {
		return fmt.Sprintf("%02d:00", h)
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d %s", h12, suffix)
}

// Date renders e.g. "Mon, Jan 6, 2025".
func Date(t time.Time) string {
	return t.Format("Mon, Jan 2, 2006")
}

// ShortDate renders e.g. "Jan 6".
func ShortDate(t time.Time) string {
	return t.Format("Jan 2")
}

// DayTitle renders e.g. "Monday, January 6, 2025".
func DayTitle(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

// WeekTitle renders the range of a week, e.g. "Jan 5 - 11, 2025" or
// "Dec 28, 2025 - Jan 3, 2026".
func WeekTitle(first, last time.Time) string {
	switch {
	case first.Year() != last.Year():
		return first.Format("Jan 2, 2006") + " - " + last.Format("Jan 2, 2006")
	case first.Month() != last.Month():
		return first.Format("Jan 2") + " - " + last.Format("Jan 2, 2006")
	default:
		return fmt.Sprintf("%s - %d, %d", first.Format("Jan 2"), last.Day(), last.Year())
	}
}

// MonthTitle renders e.g. "January 2025".
func MonthTitle(t time.Time) string {
	return t.Format("January 2006")
}

// YearTitle renders the four-digit year.
func YearTitle(t time.Time) string {
	return t.Format("2006")
}
