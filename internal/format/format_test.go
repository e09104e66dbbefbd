package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTime(t *testing.T) {
	morning := time.Date(2025, 1, 6, 9, 5, 0, 0, time.UTC)
	evening := time.Date(2025, 1, 6, 21, 30, 0, 0, time.UTC)

	assert.Equal(t, "09:05 AM", Time(morning, Clock12))
	assert.Equal(t, "09:30 PM", Time(evening, Clock12))
	assert.Equal(t, "09:05", Time(morning, Clock24))
	assert.Equal(t, "21:30", Time(evening, Clock24))
}

func TestTimeRange(t *testing.T) {
	start := time.Date(2025, 1, 6, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "23:00 - 23:45", TimeRange(start, start.Add(45*time.Minute), Clock24))
	assert.Equal(t, "23:00 - Jan 8 01:00", TimeRange(start, start.Add(26*time.Hour), Clock24))
}

func TestParseClock(t *testing.T) {
	assert.Equal(t, Clock24, ParseClock("24h"))
	assert.Equal(t, Clock24, ParseClock(" 24 "))
	assert.Equal(t, Clock12, ParseClock("12h"))
	assert.Equal(t, Clock12, ParseClock("bogus"))
}

func TestHour(t *testing.T) {
	assert.Equal(t, "12 AM", Hour(0, Clock12))
	assert.Equal(t, "12 PM", Hour(12, Clock12))
	assert.Equal(t, "3 PM", Hour(15, Clock12))
	assert.Equal(t, "07:00", Hour(7, Clock24))
}

func TestTitles(t *testing.T) {
	d := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mon, Jan 6, 2025", Date(d))
	assert.Equal(t, "Monday, January 6, 2025", DayTitle(d))
	assert.Equal(t, "January 2025", MonthTitle(d))
	assert.Equal(t, "2025", YearTitle(d))

	assert.Equal(t, "Jan 5 - 11, 2025", WeekTitle(time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Jan 26 - Feb 1, 2025", WeekTitle(time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 28, 2025 - Jan 3, 2026", WeekTitle(time.Date(2025, 12, 28, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))
}
