package observe

import (
	"context"
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{LevelDebug: "debug", LevelInfo: "info", LevelWarn: "warn", LevelError: "error"}

// ParseLogLevel parses a level name case-insensitively. Unknown input is
// LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(l)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return levelNames[LevelInfo]
	}
	return levelNames[l]
}

// structuredLogger writes one JSON object per line.
type structuredLogger struct {
	level     LogLevel
	writer    io.Writer
	mu        *sync.Mutex
	baseAttrs map[string]any
}

// NewLogger creates a new structured logger with the given level.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a new structured logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		level:     ParseLogLevel(level),
		writer:    w,
		mu:        &sync.Mutex{},
	}
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	return &noopLogger{}
}

// WithFetch returns a logger with fetch context attached. The returned
// logger shares the writer and its lock with the parent.
func (l *structuredLogger) WithFetch(meta FetchMeta) Logger {
	attrs := maps.Clone(l.baseAttrs)
	if attrs == nil {
		attrs = make(map[string]any, 4)
	}
	attrs["fetch.op"] = meta.Operation
	if meta.Metric.Valid() {
		attrs["metric"] = meta.Metric.String()
		attrs["metric.kind"] = meta.Metric.Kind().String()
	}
	if meta.CycleID != "" {
		attrs["cycle.id"] = meta.CycleID
	}

	child := *l
	child.baseAttrs = attrs
	return &child
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, fields)
}

func (l *structuredLogger) log(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if level < l.level {
		return
	}

	entry := maps.Clone(l.baseAttrs)
	if entry == nil {
		entry = make(map[string]any, len(fields)+4)
	}
	if _, ok := entry["cycle.id"]; !ok {
		if id := CycleIDFromContext(ctx); id != "" {
			entry["cycle.id"] = id
		}
	}
	for _, f := range fields {
		entry[f.Key] = f.Value
		if slices.Contains(RedactedFields, f.Key) {
			entry[f.Key] = "[REDACTED]"
		}
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(append(data, '\n'))
}

var _ Logger = (*structuredLogger)(nil)
