package layout

import (
	"sort"
	"time"

	"aical/internal/model"
)

const minutesPerDay = 24 * 60

// Placement is an event's horizontal slot on a day timeline.
type Placement struct {
	Event   model.Event `json:"event"`
	Column  int         `json:"column"`
	Columns int         `json:"columns"`
}

// Columns packs events into columns first-fit by ascending start. An event
// goes into the lowest column whose occupants all end at or before its start
// or begin at or after its end. Columns on every placement is the number of
// columns opened for the whole day, not per overlapping cluster.
func Columns(events []model.Event) []Placement {
	sorted := append([]model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var cols [][]model.Event
	out := make([]Placement, 0, len(sorted))
	for _, ev := range sorted {
		col := -1
		for i, occupants := range cols {
			if fits(occupants, ev) {
				col = i
				break
			}
		}
		if col < 0 {
			cols = append(cols, nil)
			col = len(cols) - 1
		}
		cols[col] = append(cols[col], ev)
		out = append(out, Placement{Event: ev, Column: col})
	}

	for i := range out {
		out[i].Columns = len(cols)
	}
	return out
}

func fits(occupants []model.Event, ev model.Event) bool {
	for _, o := range occupants {
		if o.End.After(ev.Start) && o.Start.Before(ev.End) {
			return false
		}
	}
	return true
}

// Block is a placed event with its geometry on a 24-hour timeline. All
// values are fractions in [0, 1].
type Block struct {
	Placement
	Top     float64 `json:"top"`
	Height  float64 `json:"height"`
	Left    float64 `json:"left"`
	Width   float64 `json:"width"`
	Segment Segment `json:"segment"`
}

// Timeline lays out the events visible on day. Events starting before the
// day are drawn from the top and events ending after it run to the bottom.
func Timeline(day time.Time, events []model.Event) []Block {
	placements := Columns(OnDay(events, day))
	blocks := make([]Block, 0, len(placements))
	for _, p := range placements {
		top := 0.0
		if SameDay(p.Event.Start, day) {
			top = float64(minutesSinceMidnight(p.Event.Start)) / minutesPerDay
		}
		bottom := 1.0
		if SameDay(p.Event.End, day) {
			bottom = float64(minutesSinceMidnight(p.Event.End)) / minutesPerDay
		}
		if bottom < top {
			bottom = top
		}
		blocks = append(blocks, Block{
			Placement: p,
			Top:       top,
			Height:    bottom - top,
			Left:      float64(p.Column) / float64(p.Columns),
			Width:     1 / float64(p.Columns),
			Segment:   SegmentOn(p.Event, day),
		})
	}
	return blocks
}

func minutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
