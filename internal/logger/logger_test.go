package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T, level logrus.Level) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	originalOutput := Log.Out
	originalLevel := Log.Level
	Log.SetOutput(&buffer)
	Log.SetLevel(level)
	t.Cleanup(func() {
		Log.SetOutput(originalOutput)
		Log.SetLevel(originalLevel)
	})
	return &buffer
}

func TestSetLevel(t *testing.T) {
	originalLevel := Log.Level
	defer Log.SetLevel(originalLevel)

	testCases := []struct {
		input    string
		expected logrus.Level
	}{
		{"DEBUG", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"WARN", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
		{"WARNING", logrus.WarnLevel},
		{"TRACE", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{" debug ", logrus.DebugLevel},
	}

	for _, tc := range testCases {
		t.Run("level_"+tc.input, func(t *testing.T) {
			SetLevel(tc.input)
			assert.Equal(t, tc.expected, Log.Level)
		})
	}
}

func TestWithCorrelationID(t *testing.T) {
	entry := WithCorrelationID("req-42")
	assert.Equal(t, "req-42", entry.Data["correlation_id"])
}

func TestCorrelationIDContextRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", CorrelationIDFromContext(ctx))
}

func TestCorrelationIDFromContext_Missing(t *testing.T) {
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
	ctx := context.WithValue(context.Background(), "correlation_id", "plain-string-key")
	assert.Equal(t, "", CorrelationIDFromContext(ctx))
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", TruncateForLog("short", 10))
	assert.Equal(t, "abcde...", TruncateForLog("abcdefghij", 5))
	assert.Equal(t, "héllo...", TruncateForLog("héllo wörld", 5))
}

func TestGetStackTrace(t *testing.T) {
	stackTrace := GetStackTrace(0)

	assert.Contains(t, stackTrace, "TestGetStackTrace")
	assert.Contains(t, stackTrace, "logger_test.go")
	assert.NotContains(t, stackTrace, "logger.GetStackTrace")
}

func TestLogErrorWithStackAndCorrelation(t *testing.T) {
	buffer := captureLog(t, logrus.ErrorLevel)

	LogErrorWithStackAndCorrelation(errors.New("backend exploded"), "corr-7", map[string]interface{}{
		"backend": "gemini",
	})

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &logEntry))

	assert.Equal(t, "backend exploded", logEntry["error"])
	assert.Equal(t, "corr-7", logEntry["correlation_id"])
	assert.Equal(t, "gemini", logEntry["backend"])
	assert.NotEmpty(t, logEntry["stack_trace"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestLogErrorWithStack_NilFields(t *testing.T) {
	buffer := captureLog(t, logrus.ErrorLevel)

	LogErrorWithStack(errors.New("no fields"), nil)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &logEntry))
	assert.Equal(t, "no fields", logEntry["error"])
	assert.NotEmpty(t, logEntry["stack_trace"])
}

func TestLogger_JSONFormat(t *testing.T) {
	buffer := captureLog(t, logrus.InfoLevel)

	Log.WithFields(logrus.Fields{"mode": "news", "duration_ms": 12}).Info("analysis completed")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &logEntry))
	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "analysis completed", logEntry["msg"])
	assert.Equal(t, "news", logEntry["mode"])
	assert.Equal(t, float64(12), logEntry["duration_ms"])
	assert.NotEmpty(t, logEntry["time"])
}
