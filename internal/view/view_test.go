package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aical/internal/format"
	"aical/internal/layout"
	"aical/internal/model"
	"aical/internal/store"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func fixedNow() time.Time { return at(2025, time.January, 8, 10, 0) }

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("decade")
	assert.Error(t, err)
}

func TestWeekDatesFromWednesday(t *testing.T) {
	dates := WeekDates(date(2025, time.January, 8))
	require.Len(t, dates, 7)
	assert.Equal(t, date(2025, time.January, 5), dates[0])
	assert.Equal(t, time.Sunday, dates[0].Weekday())
	assert.Equal(t, date(2025, time.January, 11), dates[6])
	assert.Equal(t, time.Saturday, dates[6].Weekday())
}

func TestWeekViewMarksAdjacentMonth(t *testing.T) {
	p := Project(State{Date: date(2025, time.January, 1), View: Week}, nil, Options{})
	require.NotNil(t, p.Week)
	require.Len(t, p.Week.Days, 7)

	assert.Equal(t, date(2024, time.December, 29), p.Week.Days[0].Date)
	for _, cell := range p.Week.Days {
		assert.Equal(t, cell.Date.Month() == time.January, cell.InMonth, cell.Date.String())
	}
	assert.Equal(t, "Dec 29, 2024 - Jan 4, 2025", p.Title)
}

func TestMonthGridIsAlways42Cells(t *testing.T) {
	for _, anchor := range []time.Time{
		date(2025, time.February, 14), // starts Saturday
		date(2026, time.February, 1),  // starts Sunday
		date(2025, time.August, 31),
	} {
		grid := MonthGrid(anchor)
		require.Len(t, grid, GridCells)
		assert.Equal(t, time.Sunday, grid[0].Weekday())
		assert.False(t, grid[0].After(FirstOfMonth(anchor)))
		assert.True(t, grid[0].AddDate(0, 0, 7).After(FirstOfMonth(anchor)))
	}
}

func TestMonthViewChipAndOverflow(t *testing.T) {
	events := []model.Event{
		{ID: "late", Title: "late", Start: at(2025, time.January, 8, 15, 0), End: at(2025, time.January, 8, 16, 0)},
		{ID: "early", Title: "early", Start: at(2025, time.January, 8, 9, 0), End: at(2025, time.January, 8, 10, 0)},
		{ID: "trip", Title: "trip", Start: at(2025, time.January, 30, 9, 0), End: at(2025, time.February, 2, 18, 0)},
	}
	p := Project(State{Date: date(2025, time.January, 20), View: Month}, events, Options{Now: fixedNow()})
	require.NotNil(t, p.Month)

	cells := map[time.Time]MonthCell{}
	for _, c := range p.Month.Cells {
		cells[c.Date] = c
	}

	jan8 := cells[date(2025, time.January, 8)]
	require.NotNil(t, jan8.Chip)
	assert.Equal(t, "early", jan8.Chip.Event.ID)
	assert.Equal(t, 2, jan8.Count)
	assert.Equal(t, 1, jan8.Overflow)
	assert.True(t, jan8.Today)
	assert.True(t, jan8.InMonth)

	assert.Equal(t, layout.StartCap, cells[date(2025, time.January, 30)].Chip.Segment)
	assert.Equal(t, layout.Middle, cells[date(2025, time.January, 31)].Chip.Segment)

	feb1 := cells[date(2025, time.February, 1)]
	assert.False(t, feb1.InMonth)
	require.NotNil(t, feb1.Chip, "out-of-month cells still show events")
	assert.Equal(t, layout.Middle, feb1.Chip.Segment)
	assert.Equal(t, layout.EndCap, cells[date(2025, time.February, 2)].Chip.Segment)

	empty := cells[date(2025, time.January, 9)]
	assert.Nil(t, empty.Chip)
	assert.Equal(t, 0, empty.Overflow)
}

func TestDayViewUsesLayout(t *testing.T) {
	events := []model.Event{
		{ID: "e1", Start: at(2025, time.January, 6, 9, 0), End: at(2025, time.January, 6, 10, 0)},
		{ID: "e2", Start: at(2025, time.January, 6, 9, 30), End: at(2025, time.January, 6, 11, 0)},
		{ID: "e3", Start: at(2025, time.January, 6, 10, 30), End: at(2025, time.January, 6, 11, 30)},
	}
	p := Project(State{Date: at(2025, time.January, 6, 17, 45), View: Day}, events, Options{Clock: format.Clock24})
	require.NotNil(t, p.Day)
	assert.Equal(t, date(2025, time.January, 6), p.Date)
	assert.Equal(t, 2, p.Day.Columns)
	require.Len(t, p.Day.Blocks, 3)
	assert.Equal(t, "09:00 - 10:00", p.Day.Blocks[0].Time)
	assert.Len(t, p.Day.Hours, 24)
	assert.Equal(t, "Monday, January 6, 2025", p.Title)
}

func TestYearViewFlagsDays(t *testing.T) {
	events := []model.Event{
		{ID: "nye", Start: at(2025, time.December, 31, 22, 0), End: at(2026, time.January, 1, 1, 0)},
		{ID: "feb", Start: at(2025, time.February, 3, 9, 0), End: at(2025, time.February, 3, 10, 0)},
	}
	p := Project(State{Date: date(2025, time.June, 15), View: Year}, events, Options{})
	require.NotNil(t, p.Year)
	require.Len(t, p.Year.Months, 12)

	jan := p.Year.Months[0]
	assert.Equal(t, 3, jan.Leading) // 2025-01-01 is a Wednesday
	assert.Len(t, jan.Days, 31)

	feb := p.Year.Months[1]
	assert.Len(t, feb.Days, 28)
	assert.True(t, feb.Days[2].HasEvents)
	assert.False(t, feb.Days[3].HasEvents)

	dec := p.Year.Months[11]
	assert.True(t, dec.Days[30].HasEvents)
}

func TestStepPerView(t *testing.T) {
	jan31 := date(2025, time.January, 31)

	assert.Equal(t, date(2025, time.February, 1), Step(State{Date: jan31, View: Day}, 1).Date)
	assert.Equal(t, date(2025, time.January, 24), Step(State{Date: jan31, View: Week}, -1).Date)
	assert.Equal(t, date(2025, time.February, 28), Step(State{Date: jan31, View: Month}, 1).Date)
	assert.Equal(t, date(2024, time.December, 31), Step(State{Date: jan31, View: Month}, -1).Date)
	assert.Equal(t, date(2025, time.February, 28), Step(State{Date: date(2024, time.February, 29), View: Year}, 1).Date)
	assert.Equal(t, date(2025, time.March, 15), Step(State{Date: date(2025, time.February, 15), View: Month}, 1).Date)
}

func TestControllerTransitions(t *testing.T) {
	s := store.New()
	_, err := s.Add(model.Draft{Title: "Standup", Start: at(2025, time.January, 6, 9, 0), End: at(2025, time.January, 6, 9, 30)})
	require.NoError(t, err)

	c := NewController(s, format.Clock12, fixedNow)
	assert.Equal(t, State{Date: date(2025, time.January, 8), View: Month}, c.State())

	st := c.SetView(Week)
	assert.Equal(t, Week, st.View)
	assert.Equal(t, date(2025, time.January, 8), st.Date)

	st = c.Step(-1)
	assert.Equal(t, date(2025, time.January, 1), st.Date)

	st = c.GoToDate(at(2025, time.January, 6, 13, 0))
	assert.Equal(t, State{Date: date(2025, time.January, 6), View: Day}, st)

	p := c.Render()
	require.NotNil(t, p.Day)
	require.Len(t, p.Day.Blocks, 1)
	assert.Equal(t, "09:00 AM - 09:30 AM", p.Day.Blocks[0].Time)

	st = c.GoToMonth(2025, time.March)
	assert.Equal(t, State{Date: date(2025, time.March, 1), View: Month}, st)

	st = c.Today()
	assert.Equal(t, State{Date: date(2025, time.January, 8), View: Month}, st)
	assert.Len(t, c.Render().Agenda, 1)
}
