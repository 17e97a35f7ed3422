package jsonlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestPrintInfoWritesProperties(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	logger.PrintInfo("starting server", map[string]string{"addr": ":4000"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "starting server", entries[0]["message"])
	assert.NotEmpty(t, entries[0]["time"])
	assert.Equal(t, map[string]interface{}{"addr": ":4000"}, entries[0]["properties"])
	assert.NotContains(t, entries[0], "trace")
}

func TestMinimumLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelError)

	logger.PrintInfo("dropped", nil)
	logger.PrintError(errors.New("boom"), nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Equal(t, "boom", entries[0]["message"])
	assert.Contains(t, entries[0], "trace")
}

func TestPrintFatalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	code := -1
	logger.exit = func(c int) { code = c }

	logger.PrintFatal(errors.New("cannot connect"), nil)

	assert.Equal(t, 1, code)
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "fatal", entries[0]["level"])
}

func TestLevelOff(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelOff)

	logger.PrintError(errors.New("quiet"), nil)
	assert.Empty(t, buf.String())
}

func TestWriteLogsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	n, err := logger.Write([]byte("http: TLS handshake error\n"))
	require.NoError(t, err)
	assert.Equal(t, len("http: TLS handshake error\n"), n)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "http: TLS handshake error", entries[0]["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelOff, ParseLevel(" OFF "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
