package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloating(t *testing.T) {
	want := time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)

	for _, in := range []string{
		"2025-01-06T09:30:00",
		"2025-01-06T09:30",
		"2025-01-06 09:30:00",
		"2025-01-06T09:30:00Z",
		"2025-01-06T09:30:00+09:00",
		"2025-01-06T09:30:00-05:00",
		"  2025-01-06T09:30:00.000 ",
	} {
		got, err := ParseFloating(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	for _, in := range []string{"", "tomorrow", "2025-13-01T00:00:00", "09:30"} {
		_, err := ParseFloating(in)
		assert.Error(t, err, in)
	}
}

func TestFloatingKeepsWallClock(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	in := time.Date(2025, 3, 1, 23, 15, 0, 0, loc)

	got := Floating(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 23, got.Hour())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, "2025-03-01T23:15:00", FormatFloating(in))
}

func TestDraftValidate(t *testing.T) {
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		draft Draft
		field string
	}{
		{"empty title", Draft{Title: "   ", Start: start, End: start.Add(time.Hour)}, "title"},
		{"missing start", Draft{Title: "x", End: start}, "start"},
		{"missing end", Draft{Title: "x", Start: start}, "end"},
		{"end equals start", Draft{Title: "x", Start: start, End: start}, "end"},
		{"end before start", Draft{Title: "x", Start: start, End: start.Add(-time.Minute)}, "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.draft.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	d, err := Draft{Title: "  Standup ", Location: " Room 1 ", Start: start, End: start.Add(30 * time.Minute)}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Standup", d.Title)
	assert.Equal(t, "Room 1", d.Location)
}

func TestCandidateDraft(t *testing.T) {
	d, err := Candidate{Title: "Lunch", Start: "2025-02-01T12:00:00", End: "2025-02-01T13:00:00", Location: "Cafe"}.Draft()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC), d.Start)
	assert.Equal(t, "Cafe", d.Location)

	_, err = Candidate{Title: "Lunch", Start: "noon", End: "2025-02-01T13:00:00"}.Draft()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start", ve.Field)

	_, err = Candidate{Title: "Lunch", Start: "2025-02-01T12:00:00"}.Draft()
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "end", ve.Field)
}

func TestMultiDay(t *testing.T) {
	e := Event{
		Start: time.Date(2025, 1, 6, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 8, 1, 0, 0, 0, time.UTC),
	}
	assert.True(t, e.MultiDay())
	assert.Equal(t, 26*time.Hour, e.Duration())

	e.End = time.Date(2025, 1, 6, 23, 30, 0, 0, time.UTC)
	assert.False(t, e.MultiDay())
}
