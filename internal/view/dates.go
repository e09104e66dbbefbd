package view

import (
	"time"

	"aical/internal/layout"
)

// GridCells is the fixed size of the month grid: six weeks of seven days.
const GridCells = 42

// WeekStart returns the Sunday on or before t, at 00:00.
func WeekStart(t time.Time) time.Time {
	d := layout.StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// FirstOfMonth returns 00:00 on the 1st of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months. The day of month is kept where the
// target month has it and clamped to the month's last day otherwise.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WeekDates returns Sunday through Saturday of the week containing t.
func WeekDates(t time.Time) []time.Time {
	start := WeekStart(t)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// MonthGrid returns the 42 dates shown for t's month, starting from the
// Sunday on or before the 1st.
func MonthGrid(t time.Time) []time.Time {
	start := WeekStart(FirstOfMonth(t))
	out := make([]time.Time, GridCells)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}
