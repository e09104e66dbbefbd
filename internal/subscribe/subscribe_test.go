package subscribe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aical/internal/ics"
	"aical/internal/store"
)

type fakeFetcher struct {
	bodies map[string]string
	fail   map[string]bool
}

func (f *fakeFetcher) FetchAll(_ context.Context, sources []ics.Source) ([]ics.FetchResult, []error) {
	var out []ics.FetchResult
	var errs []error
	for _, src := range sources {
		if f.fail[src.ID] {
			errs = append(errs, errors.New(src.ID+": unreachable"))
			continue
		}
		out = append(out, ics.FetchResult{Source: src, Body: []byte(f.bodies[src.ID])})
	}
	return out, errs
}

func feed(vevents ...string) string {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n")
	for _, ve := range vevents {
		sb.WriteString("BEGIN:VEVENT\r\n")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(ve), "\n", "\r\n"))
		sb.WriteString("\r\nEND:VEVENT\r\n")
	}
	sb.WriteString("END:VCALENDAR\r\n")
	return sb.String()
}

const teamFeed = `
UID:weekly@team
DTSTART:20241202T090000
DTEND:20241202T093000
RRULE:FREQ=WEEKLY;BYDAY=MO
SUMMARY:Planning`

const oneOff = `
UID:offsite@team
DTSTART:20250110T080000
DTEND:20250110T170000
SUMMARY:Offsite`

func newTestRefresher(f Fetcher, s *store.Store) *Refresher {
	return NewRefresher(f, s, Options{
		Sources:         []ics.Source{{ID: "team", URL: "https://example.com/team.ics"}},
		DisplayLocation: time.UTC,
		BackfillDays:    7,
		HorizonDays:     14,
		Now:             func() time.Time { return time.Date(2025, time.January, 8, 10, 0, 0, 0, time.UTC) },
	})
}

func TestRefreshExpandsInsideWindow(t *testing.T) {
	s := store.New()
	f := &fakeFetcher{bodies: map[string]string{"team": feed(teamFeed, oneOff)}}
	r := newTestRefresher(f, s)

	res, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Events["team"])

	events := s.List()
	require.Len(t, events, 4)
	assert.Equal(t, time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC), events[0].Start)
	assert.Equal(t, "Offsite", events[1].Title)
	assert.Equal(t, time.Date(2025, time.January, 20, 9, 0, 0, 0, time.UTC), events[3].Start)
	for _, ev := range events {
		assert.Equal(t, SourcePrefix+"team", ev.Source)
	}
}

func TestRefreshReplacesPreviousFeedEvents(t *testing.T) {
	s := store.New()
	f := &fakeFetcher{bodies: map[string]string{"team": feed(teamFeed, oneOff)}}
	r := newTestRefresher(f, s)

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len(), "refreshing twice must not duplicate")

	f.bodies["team"] = feed(oneOff)
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestRefreshKeepsEventsOfFailingFeed(t *testing.T) {
	s := store.New()
	f := &fakeFetcher{bodies: map[string]string{"team": feed(oneOff)}}
	r := newTestRefresher(f, s)

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	f.fail = map[string]bool{"team": true}
	res, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Len(t, res.Errors, 1)
	assert.Equal(t, 1, s.Len())

	f.fail = nil
	f.bodies["team"] = "  "
	_, err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	r := newTestRefresher(&fakeFetcher{}, store.New())
	err := r.Start(context.Background(), "every now and then")
	assert.Error(t, err)
}
