package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "aical/internal/log"
	"aical/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the zone whose wall clock zoned (UTC or TZID)
	// instants are converted to. Floating instants are never converted.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive floating window for
	// occurrences. When both are zero the window is unbounded: single events
	// are always kept and recurring events are cut at MaxOccurrencesPerEvent.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

func (c ExpandConfig) bounded() bool {
	return !c.RangeStart.IsZero() || !c.RangeEnd.IsZero()
}

// Occurrence is a single concrete instance of a parsed event, with floating
// start and end.
type Occurrence struct {
	SourceID string
	UID      string

	// InstanceKey uniquely identifies one occurrence of a recurring event.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time
}

// Draft converts the occurrence into store input. All-day occurrences end
// one second before their exclusive end so they do not spill onto the next
// calendar date.
func (o Occurrence) Draft() model.Draft {
	end := o.End
	if o.AllDay && end.After(o.Start.Add(time.Second)) {
		end = end.Add(-time.Second)
	}
	return model.Draft{
		Title:       o.Summary,
		Location:    o.Location,
		Description: o.Description,
		Start:       o.Start,
		End:         end,
	}
}

// ExpandResult wraps the list of expanded occurrences and optionally
// information about truncation.
type ExpandResult struct {
	Occurrences []Occurrence
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// Drafts converts the occurrences into validated store input. Occurrences
// the store would reject, such as zero-length events, are returned in
// skipped instead of failing the whole calendar.
func (r ExpandResult) Drafts() (drafts []model.Draft, skipped []Occurrence) {
	drafts = make([]model.Draft, 0, len(r.Occurrences))
	for _, o := range r.Occurrences {
		d, err := o.Draft().Validate()
		if err != nil {
			appLog.Debug("ics occurrence skipped", "id", o.SourceID, "uid", o.UID, "reason", err.Error())
			skipped = append(skipped, o)
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, skipped
}

// ExpandOccurrences materializes parsed events into concrete floating
// occurrences. Recurrence is expanded eagerly here so that nothing
// downstream ever stores a rule. It handles:
//
//   - Single non-recurring events
//   - RRULE-based recurrence (DAILY/WEEKLY/MONTHLY/YEARLY, etc.)
//   - EXDATE for exception removal
//   - RECURRENCE-ID overrides
//   - All-day semantics
//
// Output order follows the input order of base events.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.bounded() && cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group overrides by UID; keep base events in document order.
	overridesByUID := make(map[string][]ParsedEvent)
	var bases []ParsedEvent
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			bases = append(bases, ev)
		}
	}

	allOccurrences := make([]Occurrence, 0)
	truncated := make(map[string]bool)

	for _, ev := range bases {
		occ, hitCap := expandEvent(ev, overridesByUID[ev.UID], cfg)
		allOccurrences = append(allOccurrences, occ...)

		if hitCap && !truncated[ev.UID] {
			truncated[ev.UID] = true
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	result.Occurrences = allOccurrences
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []Occurrence {
	var out []Occurrence

	baseStart := ev.Start
	baseEnd := ev.End

	// Apply any override whose RECURRENCE-ID matches this start.
	if o, ok := findOverrideForStart(overrides, baseStart); ok {
		baseStart = o.Start
		baseEnd = o.End
		ev = o
	}

	occ := makeOccurrence(ev, baseStart, baseEnd, cfg.DisplayLocation)
	if cfg.bounded() && !timeRangesOverlap(occ.Start, occ.End, cfg.RangeStart, cfg.RangeEnd) {
		return out
	}
	return append(out, occ)
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	out := make([]Occurrence, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}

	// Ensure Dtstart is set to the event's DTSTART.
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)

	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	var occTimes []time.Time
	if cfg.bounded() {
		// The window is floating; reinterpret its wall clock in the event's
		// zone for Between().
		rangeStart := wallIn(cfg.RangeStart, ev.Start.Location())
		rangeEnd := wallIn(cfg.RangeEnd, ev.Start.Location())
		occTimes = set.Between(rangeStart, rangeEnd, true)
		if len(occTimes) > cfg.MaxOccurrencesPerEvent {
			occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
			hitCap = true
		}
	} else {
		next := set.Iterator()
		for {
			t, ok := next()
			if !ok {
				break
			}
			if len(occTimes) == cfg.MaxOccurrencesPerEvent {
				hitCap = true
				break
			}
			occTimes = append(occTimes, t)
		}
	}

	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// All-day: treat as [date 00:00, next day 00:00) in event's zone.
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			days := int(ev.End.Sub(ev.Start).Hours()/24 + 0.5)
			if days < 1 {
				days = 1
			}
			occEnd = date.AddDate(0, 0, days)
		} else {
			// Preserve original duration.
			occEnd = occStart.Add(ev.End.Sub(ev.Start))
		}

		baseStart := occStart
		baseEnd := occEnd
		baseEv := ev

		if o, ok := findOverrideForStart(overrides, occStart); ok {
			baseStart = o.Start
			baseEnd = o.End
			baseEv = o
		}

		out = append(out, makeOccurrence(baseEv, baseStart, baseEnd, cfg.DisplayLocation))
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID matches
// baseStart exactly.
func findOverrideForStart(overrides []ParsedEvent, baseStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		rid := ov.Recurrence.In(baseStart.Location())
		if rid.Equal(baseStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// makeOccurrence converts a (possibly overridden) ParsedEvent + specific
// start/end into a floating Occurrence.
func makeOccurrence(ev ParsedEvent, start, end time.Time, displayLoc *time.Location) Occurrence {
	if !ev.Floating && !ev.AllDay {
		start = start.In(displayLoc)
		end = end.In(displayLoc)
	}
	startLocal := model.Floating(start)
	endLocal := model.Floating(end)

	return Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: startLocal.Format(floatingFormat),
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       startLocal,
		End:         endLocal,
	}
}

// wallIn keeps t's wall clock and attaches loc.
func wallIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !bStart.IsZero() && aEnd.Before(bStart) {
		return false
	}
	if !bEnd.IsZero() && bEnd.Before(aStart) {
		return false
	}
	return true
}
