package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:a\r\nDTSTART:20250108T090000\r\nDTEND:20250108T100000\r\nSUMMARY:Standup\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:b\r\nDTSTART:20250108T093000\r\nDTEND:20250108T103000\r\nSUMMARY:Review\r\nLOCATION:Room 2\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:c\r\nDTSTART:20250120T140000\r\nDTEND:20250120T150000\r\nSUMMARY:Dentist\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "team.ics")
	require.NoError(t, os.WriteFile(path, []byte(sampleICS), 0o644))
	return path
}

var renderNow = time.Date(2025, time.January, 8, 12, 0, 0, 0, time.UTC)

func TestLoadFilesExpandsEvents(t *testing.T) {
	events, err := loadFiles([]string{writeSample(t)}, time.UTC)
	require.NoError(t, err)

	list := events.List()
	require.Len(t, list, 3)
	for _, e := range list {
		assert.Equal(t, sourceFile, e.Source)
		assert.NotEmpty(t, e.ID)
	}
}

func TestLoadFilesSkipsZeroLengthEvents(t *testing.T) {
	body := strings.Replace(sampleICS, "DTEND:20250120T150000", "DTEND:20250120T140000", 1)
	path := filepath.Join(t.TempDir(), "marker.ics")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	events, err := loadFiles([]string{path}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, events.Len())
}

func TestLoadFilesMissingFile(t *testing.T) {
	_, err := loadFiles([]string{filepath.Join(t.TempDir(), "nope.ics")}, time.UTC)
	assert.Error(t, err)
}

func TestRenderDayShowsColumns(t *testing.T) {
	var buf bytes.Buffer
	err := runRender(&buf, renderFlags{
		files: []string{writeSample(t)},
		view:  "day",
		date:  "2025-01-08",
		clock: "24h",
	}, renderNow)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Wednesday, January 8, 2025 (day)"), out)
	assert.Contains(t, out, "[1/2] 09:00 - 10:00")
	assert.Contains(t, out, "[2/2] 09:30 - 10:30")
	assert.Contains(t, out, "Dentist")
	assert.Contains(t, out, "Room 2")
}

func TestRenderMonthMarksBusyDays(t *testing.T) {
	var buf bytes.Buffer
	err := runRender(&buf, renderFlags{
		files: []string{writeSample(t)},
		view:  "month",
		date:  "2025-01-15",
	}, renderNow)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "January 2025 (month)")
	assert.Contains(t, out, " 8+")
	assert.Contains(t, out, "20*")
	assert.Contains(t, out, "02:00 PM - 03:00 PM")
}

func TestRenderRejectsBadInput(t *testing.T) {
	path := writeSample(t)
	cases := map[string]renderFlags{
		"view":     {files: []string{path}, view: "decade"},
		"date":     {files: []string{path}, view: "day", date: "08/01/2025"},
		"timezone": {files: []string{path}, view: "day", timezone: "Mars/Olympus"},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, runRender(&bytes.Buffer{}, f, renderNow))
		})
	}
}

func TestExportCommandWritesFloatingCalendar(t *testing.T) {
	cmd := newExportCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--ics", writeSample(t), "--name", "Team"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "X-WR-CALNAME:Team\r\n")
	assert.Contains(t, out, "DTSTART:20250108T093000\r\n")
	assert.Equal(t, 3, strings.Count(out, "BEGIN:VEVENT"))
}
