package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var records []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	return records
}

func TestLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter("test-service", &buf).WithLevel(LogLevelDebug)

	logger.Debug("Debug message", map[string]interface{}{"key": "value"})
	logger.Info("Info message", map[string]interface{}{"key": "value"})
	logger.Warn("Warn message", map[string]interface{}{"key": "value"})

	records := decodeRecords(t, &buf)
	require.Len(t, records, 3)
	assert.Equal(t, "Debug message", records[0]["msg"])
	assert.Equal(t, "DEBUG", records[0]["level"])
	assert.Equal(t, "WARN", records[2]["level"])
	assert.Equal(t, "value", records[1]["key"])
	assert.Equal(t, "test-service", records[1]["component"])
}

func TestLogger_MinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter("test-service", &buf).WithLevel(LogLevelWarn)

	logger.Debug("Debug message", nil)
	logger.Info("Info message", nil)
	logger.Error("Error message", nil)

	records := decodeRecords(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "Error message", records[0]["msg"])
}

func TestLogger_WithPrefixAndFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewStandardLoggerWithWriter("parent", &buf)

	child := base.WithPrefix("child").With(map[string]interface{}{"connection_id": "abc"})
	child.Infof("hello %s", "world")

	records := decodeRecords(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "hello world", records[0]["msg"])
	assert.Equal(t, "child", records[0]["component"])
	assert.Equal(t, "abc", records[0]["connection_id"])
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter("svc", &buf)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal("boom", nil)

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "boom")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LogLevelDebug, true},
		{"INFO", LogLevelInfo, true},
		{"warning", LogLevelWarn, true},
		{"error", LogLevelError, true},
		{"", LogLevelInfo, true},
		{"verbose", LogLevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	logger.Info("ignored", nil)
	assert.Same(t, logger, logger.WithPrefix("x"))
}
