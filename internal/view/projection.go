package view

import (
	"sort"
	"time"

	"aical/internal/format"
	"aical/internal/layout"
	"aical/internal/model"
)

// EventRef is an event as shown on one particular date.
type EventRef struct {
	Event   model.Event    `json:"event"`
	Segment layout.Segment `json:"segment"`
	Time    string         `json:"time"`
}

// DayCell is one date of the week view.
type DayCell struct {
	Date    time.Time  `json:"date"`
	InMonth bool       `json:"in_month"`
	Today   bool       `json:"today"`
	Events  []EventRef `json:"events"`
}

// MonthCell is one cell of the 42-cell month grid. Only the chronologically
// first event is rendered as a chip; Overflow counts the rest.
type MonthCell struct {
	Date     time.Time `json:"date"`
	InMonth  bool      `json:"in_month"`
	Today    bool      `json:"today"`
	Chip     *EventRef `json:"chip,omitempty"`
	Count    int       `json:"count"`
	Overflow int       `json:"overflow"`
}

// TimelineBlock is a laid-out event on the day view.
type TimelineBlock struct {
	layout.Block
	Time string `json:"time"`
}

type DayView struct {
	Date    time.Time       `json:"date"`
	Today   bool            `json:"today"`
	Columns int             `json:"columns"`
	Blocks  []TimelineBlock `json:"blocks"`
	Hours   []string        `json:"hours"`
}

type WeekView struct {
	Days []DayCell `json:"days"`
}

type MonthView struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Cells []MonthCell `json:"cells"`
}

// MiniDay is a day cell of a year-view month.
type MiniDay struct {
	Day       int       `json:"day"`
	Date      time.Time `json:"date"`
	HasEvents bool      `json:"has_events"`
	Today     bool      `json:"today"`
}

// MiniMonth is a compact month grid: Leading blank cells then one cell per day.
type MiniMonth struct {
	Month   time.Month `json:"month"`
	Title   string     `json:"title"`
	Leading int        `json:"leading"`
	Days    []MiniDay  `json:"days"`
}

type YearView struct {
	Year   int         `json:"year"`
	Months []MiniMonth `json:"months"`
}

// AgendaItem is a row of the chronological event list.
type AgendaItem struct {
	Event model.Event `json:"event"`
	Date  string      `json:"date"`
	Time  string      `json:"time"`
}

// Projection is everything needed to draw one view. Exactly one of Day,
// Week, Month and Year is set, matching View.
type Projection struct {
	View   Kind         `json:"view"`
	Date   time.Time    `json:"date"`
	Title  string       `json:"title"`
	Clock  string       `json:"clock"`
	Day    *DayView     `json:"day,omitempty"`
	Week   *WeekView    `json:"week,omitempty"`
	Month  *MonthView   `json:"month,omitempty"`
	Year   *YearView    `json:"year,omitempty"`
	Agenda []AgendaItem `json:"agenda"`
}

// Options tune a projection.
type Options struct {
	Clock format.ClockFormat
	// Now marks today's cells; zero means nothing is marked.
	Now time.Time
}

// Project derives the display model for state from events. It never
// mutates events.
func Project(state State, events []model.Event, opts Options) Projection {
	sorted := append([]model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	p := projector{events: sorted, opts: opts}
	anchor := layout.StartOfDay(state.Date)

	out := Projection{
		View:   state.View,
		Date:   anchor,
		Clock:  opts.Clock.String(),
		Agenda: p.agenda(),
	}

	switch state.View {
	case Day:
		out.Title = format.DayTitle(anchor)
		out.Day = p.day(anchor)
	case Week:
		dates := WeekDates(anchor)
		out.Title = format.WeekTitle(dates[0], dates[len(dates)-1])
		out.Week = p.week(anchor, dates)
	case Month:
		out.Title = format.MonthTitle(anchor)
		out.Month = p.month(anchor)
	case Year:
		out.Title = format.YearTitle(anchor)
		out.Year = p.year(anchor)
	}
	return out
}

type projector struct {
	events []model.Event
	opts   Options
}

func (p projector) isToday(d time.Time) bool {
	return !p.opts.Now.IsZero() && layout.SameDay(d, p.opts.Now)
}

func (p projector) refsOn(date time.Time) []EventRef {
	refs := make([]EventRef, 0)
	for _, e := range p.events {
		if !layout.SpansDay(e, date) {
			continue
		}
		refs = append(refs, EventRef{
			Event:   e,
			Segment: layout.SegmentOn(e, date),
			Time:    format.TimeRange(e.Start, e.End, p.opts.Clock),
		})
	}
	return refs
}

func (p projector) day(date time.Time) *DayView {
	blocks := layout.Timeline(date, p.events)
	dv := &DayView{
		Date:    date,
		Today:   p.isToday(date),
		Columns: 1,
		Blocks:  make([]TimelineBlock, 0, len(blocks)),
		Hours:   make([]string, 24),
	}
	for h := range dv.Hours {
		dv.Hours[h] = format.Hour(h, p.opts.Clock)
	}
	for _, b := range blocks {
		dv.Columns = b.Columns
		dv.Blocks = append(dv.Blocks, TimelineBlock{
			Block: b,
			Time:  format.TimeRange(b.Event.Start, b.Event.End, p.opts.Clock),
		})
	}
	return dv
}

func (p projector) week(anchor time.Time, dates []time.Time) *WeekView {
	wv := &WeekView{Days: make([]DayCell, 0, len(dates))}
	for _, d := range dates {
		wv.Days = append(wv.Days, DayCell{
			Date:    d,
			InMonth: d.Month() == anchor.Month() && d.Year() == anchor.Year(),
			Today:   p.isToday(d),
			Events:  p.refsOn(d),
		})
	}
	return wv
}

func (p projector) month(anchor time.Time) *MonthView {
	mv := &MonthView{
		Year:  anchor.Year(),
		Month: anchor.Month(),
		Cells: make([]MonthCell, 0, GridCells),
	}
	for _, d := range MonthGrid(anchor) {
		cell := MonthCell{
			Date:    d,
			InMonth: d.Month() == anchor.Month() && d.Year() == anchor.Year(),
			Today:   p.isToday(d),
		}
		refs := p.refsOn(d)
		cell.Count = len(refs)
		if len(refs) > 0 {
			first := refs[0]
			cell.Chip = &first
			cell.Overflow = len(refs) - 1
		}
		mv.Cells = append(mv.Cells, cell)
	}
	return mv
}

func (p projector) year(anchor time.Time) *YearView {
	yv := &YearView{Year: anchor.Year(), Months: make([]MiniMonth, 0, 12)}
	for m := time.January; m <= time.December; m++ {
		first := time.Date(anchor.Year(), m, 1, 0, 0, 0, 0, anchor.Location())
		mm := MiniMonth{
			Month:   m,
			Title:   m.String(),
			Leading: int(first.Weekday()),
		}
		n := DaysIn(first.Year(), m)
		mm.Days = make([]MiniDay, 0, n)
		for i := 0; i < n; i++ {
			d := first.AddDate(0, 0, i)
			mm.Days = append(mm.Days, MiniDay{
				Day:       i + 1,
				Date:      d,
				HasEvents: p.anyOn(d),
				Today:     p.isToday(d),
			})
		}
		yv.Months = append(yv.Months, mm)
	}
	return yv
}

func (p projector) anyOn(d time.Time) bool {
	for _, e := range p.events {
		if layout.SpansDay(e, d) {
			return true
		}
	}
	return false
}

func (p projector) agenda() []AgendaItem {
	items := make([]AgendaItem, 0, len(p.events))
	for _, e := range p.events {
		items = append(items, AgendaItem{
			Event: e,
			Date:  format.Date(e.Start),
			Time:  format.TimeRange(e.Start, e.End, p.opts.Clock),
		})
	}
	return items
}
