// Package layout decides which events appear on a calendar date and how
// concurrent events share horizontal space on a day timeline.
package layout

import (
	"time"

	"aical/internal/model"
)

// StartOfDay truncates t to 00:00:00 of its calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar date.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// SameDay reports whether a and b share a calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SpansDay reports whether the event is shown on date. An event occupies
// every calendar date it touches, from the date of Start through the date
// of End, both inclusive.
func SpansDay(e model.Event, date time.Time) bool {
	day := StartOfDay(date)
	return !day.Before(StartOfDay(e.Start)) && !day.After(EndOfDay(e.End))
}

// Segment tells how a date relates to the event's span.
type Segment int

const (
	// Single: the event starts and ends on this date.
	Single Segment = iota
	// StartCap: first date of a multi-day event.
	StartCap
	// Middle: a date strictly inside a multi-day event.
	Middle
	// EndCap: last date of a multi-day event.
	EndCap
)

func (s Segment) String() string {
	switch s {
	case Single:
		return "single"
	case StartCap:
		return "start"
	case Middle:
		return "middle"
	case EndCap:
		return "end"
	}
	return "unknown"
}

func (s Segment) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SegmentOn classifies date for an event that SpansDay it.
func SegmentOn(e model.Event, date time.Time) Segment {
	first := SameDay(e.Start, date)
	last := SameDay(e.End, date)
	switch {
	case first && last:
		return Single
	case first:
		return StartCap
	case last:
		return EndCap
	default:
		return Middle
	}
}

// OnDay filters events to those visible on date, keeping their order.
func OnDay(events []model.Event, date time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, e := range events {
		if SpansDay(e, date) {
			out = append(out, e)
		}
	}
	return out
}
