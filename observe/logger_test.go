package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonwraymond/healthaccess/metric"
)

func parseLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, line)
	}
	return entry
}

func TestLogger_IncludesFetchFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := FetchMeta{Operation: OpAggregateToday, Metric: metric.ActiveEnergy, CycleID: "c-42"}
	logger.WithFetch(meta).Info(context.Background(), "test message")

	entry := parseLine(t, buf.String())
	want := map[string]string{
		"fetch.op":    OpAggregateToday,
		"metric":      "active_energy",
		"metric.kind": "cumulative",
		"cycle.id":    "c-42",
		"level":       "info",
		"msg":         "test message",
	}
	for k, v := range want {
		if got, _ := entry[k].(string); got != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestLogger_CycleIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	ctx := WithCycleID(context.Background(), "ctx-cycle")
	logger.Info(ctx, "hello")

	entry := parseLine(t, buf.String())
	if entry["cycle.id"] != "ctx-cycle" {
		t.Errorf("cycle.id = %v, want ctx-cycle", entry["cycle.id"])
	}
}

func TestLogger_HealthValuesRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "reading",
		Field{Key: "value", Value: 72.0},
		Field{Key: "quantity", Value: 1200},
		Field{Key: "birth_date", Value: "1991-03-04"},
		Field{Key: "duration_ms", Value: 3.0},
	)

	out := buf.String()
	for _, leaked := range []string{"72", "1200", "1991-03-04"} {
		if strings.Contains(out, leaked) {
			t.Errorf("log output leaked %q: %s", leaked, out)
		}
	}

	entry := parseLine(t, out)
	for _, k := range []string{"value", "quantity", "birth_date"} {
		if entry[k] != "[REDACTED]" {
			t.Errorf("%s = %v, want [REDACTED]", k, entry[k])
		}
	}
	if entry["duration_ms"] != 3.0 {
		t.Errorf("duration_ms = %v, want 3", entry["duration_ms"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		emitted []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"warn", []string{"warn", "error"}},
		{"error", []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(tt.level, &buf)
			ctx := context.Background()

			logger.Debug(ctx, "d")
			logger.Info(ctx, "i")
			logger.Warn(ctx, "w")
			logger.Error(ctx, "e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.emitted) {
				t.Fatalf("got %d lines, want %d: %s", len(lines), len(tt.emitted), buf.String())
			}
			for i, line := range lines {
				if got := parseLine(t, line)["level"]; got != tt.emitted[i] {
					t.Errorf("line %d level = %v, want %s", i, got, tt.emitted[i])
				}
			}
		})
	}
}

func TestLogger_WithFetchDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithFetch(FetchMeta{Operation: OpLatest, Metric: metric.Height})
	logger.Info(context.Background(), "parent")

	entry := parseLine(t, buf.String())
	if _, ok := entry["metric"]; ok {
		t.Error("parent logger should not carry child fields")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNopLogger_Discards(t *testing.T) {
	logger := NopLogger()
	logger.Info(context.Background(), "ignored", Field{Key: "value", Value: 1})
	if logger.WithFetch(FetchMeta{Operation: OpAuthorize}) == nil {
		t.Fatal("WithFetch returned nil")
	}
}
