package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	assert.NotNil(t, logger)
	assert.IsType(t, &zerologLogger{}, logger)
}

func TestLevels(t *testing.T) {
	t.Run("debug level emits everything", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(&buf, "debug")
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 4)
		assert.Equal(t, "debug", entries[0]["level"])
		assert.Equal(t, "debug message", entries[0]["message"])
		assert.Equal(t, "error", entries[3]["level"])
	})

	t.Run("warn level drops info and debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(&buf, "WARN")
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "warn message", entries[0]["message"])
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerWithWriter(&buf, "verbose")
		logger.Debug("hidden")
		logger.Info("shown")

		entries := decodeLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "shown", entries[0]["message"])
	})
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "info")
	logger.WithField("organization_id", "org_1").Info("message with field")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "org_1", entries[0]["organization_id"])
	assert.NotEmpty(t, entries[0]["time"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerWithWriter(&buf, "info")
	base.WithFields(map[string]interface{}{
		"customer_id": "cus_1",
		"failed":      2,
	}).Info("with fields")
	base.Info("without fields")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "cus_1", entries[0]["customer_id"])
	assert.Equal(t, float64(2), entries[0]["failed"])
	_, leaked := entries[1]["customer_id"]
	assert.False(t, leaked, "parent logger must not inherit child fields")
}

func TestTestLogger(t *testing.T) {
	logger := NewTestLogger(t)
	child := logger.WithField("a", 1).WithFields(map[string]interface{}{"b": 2})
	child.Info("forwarded to testing.T")

	tl, ok := child.(*TestLogger)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, tl.fields)
	assert.Nil(t, logger.(*TestLogger).fields)
}
