package layout

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aical/internal/model"
)

func ts(day, hour, min int) time.Time {
	return time.Date(2025, 1, day, hour, min, 0, 0, time.UTC)
}

func ev(id string, start, end time.Time) model.Event {
	return model.Event{ID: id, Title: id, Start: start, End: end}
}

func TestSpansDaySingleDay(t *testing.T) {
	standup := ev("standup", ts(6, 9, 0), ts(6, 9, 30))

	assert.True(t, SpansDay(standup, ts(6, 0, 0)))
	assert.True(t, SpansDay(standup, ts(6, 23, 59)))
	assert.False(t, SpansDay(standup, ts(5, 0, 0)))
	assert.False(t, SpansDay(standup, ts(7, 0, 0)))
}

func TestSpansDayCoversEveryTouchedDate(t *testing.T) {
	// 23:00 Monday to 01:00 Wednesday.
	e := ev("overnight", ts(6, 23, 0), ts(8, 1, 0))

	assert.False(t, SpansDay(e, ts(5, 12, 0)))
	assert.True(t, SpansDay(e, ts(6, 12, 0)))
	assert.True(t, SpansDay(e, ts(7, 12, 0)))
	assert.True(t, SpansDay(e, ts(8, 12, 0)))
	assert.False(t, SpansDay(e, ts(9, 0, 0)))

	assert.Equal(t, StartCap, SegmentOn(e, ts(6, 0, 0)))
	assert.Equal(t, Middle, SegmentOn(e, ts(7, 0, 0)))
	assert.Equal(t, EndCap, SegmentOn(e, ts(8, 0, 0)))
	assert.Equal(t, Single, SegmentOn(ev("x", ts(6, 9, 0), ts(6, 10, 0)), ts(6, 0, 0)))
}

func TestSpansDayMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		startDay := 1 + rng.Intn(20)
		span := rng.Intn(6)
		start := ts(startDay, rng.Intn(24), rng.Intn(60))
		end := time.Date(2025, 1, startDay+span, rng.Intn(24), rng.Intn(60), 0, 0, time.UTC)
		if !end.After(start) {
			end = start.Add(time.Minute)
		}
		e := ev("r", start, end)

		first := StartOfDay(start)
		last := StartOfDay(end)
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			require.True(t, SpansDay(e, d), "day %s should be covered by %s..%s", d, start, end)
		}
		require.False(t, SpansDay(e, first.AddDate(0, 0, -1)))
		require.False(t, SpansDay(e, last.AddDate(0, 0, 1)))
	}
}

func columnsByID(ps []Placement) (map[string]int, int) {
	out := map[string]int{}
	total := 0
	for _, p := range ps {
		out[p.Event.ID] = p.Column
		total = p.Columns
	}
	return out, total
}

func TestColumnsFirstFit(t *testing.T) {
	events := []model.Event{
		ev("e3", ts(6, 10, 30), ts(6, 11, 30)),
		ev("e1", ts(6, 9, 0), ts(6, 10, 0)),
		ev("e2", ts(6, 9, 30), ts(6, 11, 0)),
	}
	cols, total := columnsByID(Columns(events))

	assert.Equal(t, 0, cols["e1"])
	assert.Equal(t, 1, cols["e2"])
	assert.Equal(t, 0, cols["e3"])
	assert.Equal(t, 2, total)
}

func TestColumnsNonOverlappingShareColumnZero(t *testing.T) {
	events := []model.Event{
		ev("a", ts(6, 8, 0), ts(6, 9, 0)),
		ev("b", ts(6, 9, 0), ts(6, 10, 0)),
		ev("c", ts(6, 13, 0), ts(6, 14, 0)),
	}
	for _, p := range Columns(events) {
		assert.Equal(t, 0, p.Column)
		assert.Equal(t, 1, p.Columns)
	}
}

func TestColumnsTotalIsGlobalPerDay(t *testing.T) {
	events := []model.Event{
		ev("a", ts(6, 9, 0), ts(6, 10, 0)),
		ev("b", ts(6, 9, 0), ts(6, 10, 0)),
		ev("c", ts(6, 9, 0), ts(6, 10, 0)),
		ev("lonely", ts(6, 18, 0), ts(6, 19, 0)),
	}
	cols, total := columnsByID(Columns(events))
	assert.Equal(t, 3, total)
	assert.Equal(t, 0, cols["lonely"])
	assert.Equal(t, []int{0, 1, 2}, []int{cols["a"], cols["b"], cols["c"]})
}

func TestColumnsEdgeCases(t *testing.T) {
	assert.Empty(t, Columns(nil))

	ps := Columns([]model.Event{ev("solo", ts(6, 9, 0), ts(6, 10, 0))})
	require.Len(t, ps, 1)
	assert.Equal(t, 0, ps[0].Column)
	assert.Equal(t, 1, ps[0].Columns)
}

func TestColumnsNeverShareOverlaps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 100; round++ {
		n := 1 + rng.Intn(12)
		events := make([]model.Event, 0, n)
		for i := 0; i < n; i++ {
			start := ts(6, rng.Intn(20), rng.Intn(4)*15)
			end := start.Add(time.Duration(15+rng.Intn(240)) * time.Minute)
			events = append(events, ev(fmt.Sprint(i), start, end))
		}

		ps := Columns(events)
		require.Len(t, ps, n)
		for i := range ps {
			require.Less(t, ps[i].Column, ps[i].Columns)
			for j := i + 1; j < len(ps); j++ {
				if ps[i].Column != ps[j].Column {
					continue
				}
				a, b := ps[i].Event, ps[j].Event
				require.True(t, !a.End.After(b.Start) || !b.End.After(a.Start),
					"overlapping %v and %v share column %d", a, b, ps[i].Column)
			}
		}
	}
}

func TestTimelineGeometry(t *testing.T) {
	day := ts(7, 0, 0)
	events := []model.Event{
		ev("morning", ts(7, 6, 0), ts(7, 12, 0)),
		ev("from-yesterday", ts(6, 22, 0), ts(7, 3, 0)),
		ev("into-tomorrow", ts(7, 18, 0), ts(8, 2, 0)),
		ev("elsewhere", ts(9, 9, 0), ts(9, 10, 0)),
	}

	blocks := Timeline(day, events)
	require.Len(t, blocks, 3)

	byID := map[string]Block{}
	for _, b := range blocks {
		byID[b.Event.ID] = b
	}

	prev := byID["from-yesterday"]
	assert.Equal(t, 0.0, prev.Top)
	assert.InDelta(t, 3.0/24, prev.Height, 1e-9)
	assert.Equal(t, EndCap, prev.Segment)

	morning := byID["morning"]
	assert.InDelta(t, 6.0/24, morning.Top, 1e-9)
	assert.InDelta(t, 6.0/24, morning.Height, 1e-9)

	late := byID["into-tomorrow"]
	assert.InDelta(t, 18.0/24, late.Top, 1e-9)
	assert.InDelta(t, 1-18.0/24, late.Height, 1e-9)
	assert.Equal(t, StartCap, late.Segment)

	for _, b := range blocks {
		assert.Equal(t, 1, b.Columns)
		assert.Equal(t, 1.0, b.Width)
		assert.Equal(t, 0.0, b.Left)
	}
}
