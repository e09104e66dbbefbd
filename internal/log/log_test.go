package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelDebug, false)
	t.Cleanup(func() { Configure(os.Stderr, LevelInfo, false) })

	Error("fetch failed", errors.New("timeout"), "id", "team", "attempt", 2, 42, "dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "fetch failed", line["message"])
	assert.Equal(t, "timeout", line["error"])
	assert.Equal(t, "team", line["id"])
	assert.EqualValues(t, 2, line["attempt"])
}

func TestLogLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, LevelError, false)
	t.Cleanup(func() { Configure(os.Stderr, LevelInfo, false) })

	Debug("hidden")
	Info("hidden too")
	assert.Zero(t, buf.Len())

	SetLevel(LevelDebug)
	Debug("visible")
	assert.True(t, strings.Contains(buf.String(), "visible"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
