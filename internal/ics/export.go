package ics

import (
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"aical/internal/model"
)

// floatingFormat is an iCalendar DATE-TIME with no "Z" and no TZID, i.e.
// floating time that calendar clients show at the same wall clock.
const floatingFormat = "20060102T150405"

// ExportOptions controls the calendar-level properties of an export.
type ExportOptions struct {
	// ProductID is the PRODID value.
	ProductID string
	// CalendarName is written as X-WR-CALNAME.
	CalendarName string
	// UIDDomain is appended to every event id to form the UID.
	UIDDomain string
	// Now is the DTSTAMP of every entry. Zero means time.Now().
	Now time.Time
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.ProductID == "" {
		o.ProductID = "-//AI Calendar Generator//EN"
	}
	if o.CalendarName == "" {
		o.CalendarName = "My Calendar"
	}
	if o.UIDDomain == "" {
		o.UIDDomain = "ai-calendar-generator.com"
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// BuildCalendar converts events into a VCALENDAR. Every instant is written
// as floating local time; no UTC conversion is applied and no X-WR-TIMEZONE
// is set.
func BuildCalendar(events []model.Event, opts ExportOptions) *ical.Calendar {
	opts = opts.withDefaults()

	cal := ical.NewCalendarFor("aical")
	cal.SetProductId(opts.ProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(opts.CalendarName)

	stamp := model.Floating(opts.Now).Format(floatingFormat)
	for _, ev := range events {
		ve := cal.AddEvent(ev.ID + "@" + opts.UIDDomain)
		ve.SetProperty(ical.ComponentPropertyDtstamp, stamp)
		ve.SetProperty(ical.ComponentPropertyDtStart, model.Floating(ev.Start).Format(floatingFormat))
		ve.SetProperty(ical.ComponentPropertyDtEnd, model.Floating(ev.End).Format(floatingFormat))
		ve.SetSummary(cleanText(ev.Title))
		if ev.Location != "" {
			ve.SetLocation(cleanText(ev.Location))
		}
		if ev.Description != "" {
			ve.SetDescription(cleanText(ev.Description))
		}
		ve.SetStatus(ical.ObjectStatusConfirmed)
		ve.SetSequence(0)
		ve.SetTimeTransparency(ical.TransparencyOpaque)
	}
	return cal
}

// Export serializes events into an iCalendar document with CRLF line endings.
func Export(events []model.Event, opts ExportOptions) string {
	return BuildCalendar(events, opts).Serialize(ical.WithNewLine("\r\n"))
}

// ExportTo writes the document produced by Export to w.
func ExportTo(w io.Writer, events []model.Event, opts ExportOptions) error {
	return BuildCalendar(events, opts).SerializeTo(w, ical.WithNewLine("\r\n"))
}

// cleanText drops carriage returns; the library escapes the rest.
func cleanText(s string) string {
	return strings.ReplaceAll(s, "\r", "")
}
