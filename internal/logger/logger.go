package logger

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

type ctxKey struct{}

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	Log.SetOutput(os.Stdout)
}

// SetLevel sets the logging level from LOG_LEVEL. Unknown values fall back to info.
func SetLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		Log.SetLevel(logrus.DebugLevel)
	case "WARN", "WARNING":
		Log.SetLevel(logrus.WarnLevel)
	case "ERROR":
		Log.SetLevel(logrus.ErrorLevel)
	default:
		Log.SetLevel(logrus.InfoLevel)
	}
}

// WithCorrelationID returns a logger entry with correlation ID
func WithCorrelationID(correlationID string) *logrus.Entry {
	return Log.WithField("correlation_id", correlationID)
}

// ContextWithCorrelationID returns a child context carrying the correlation ID
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, correlationID)
}

// CorrelationIDFromContext extracts the correlation ID, or "" when none was set
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok {
		return id
	}
	return ""
}

// TruncateForLog shortens text so page bodies and prompts never land in logs whole
func TruncateForLog(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + "..."
}

// GetStackTrace formats the caller's stack, skipping skip frames above it
func GetStackTrace(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["stack_trace"] = GetStackTrace(1)
	Log.WithFields(fields).WithError(err).Error("Error occurred")
}

// LogErrorWithStackAndCorrelation logs an error with stack trace and correlation ID
func LogErrorWithStackAndCorrelation(err error, correlationID string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["correlation_id"] = correlationID
	fields["stack_trace"] = GetStackTrace(1)
	Log.WithFields(fields).WithError(err).Error("Error occurred")
}
