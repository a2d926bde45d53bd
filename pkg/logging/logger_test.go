package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", WarnLevel)
	logger.SetOutput(&buf)

	ctx := context.Background()
	logger.Debug(ctx, "debug", Fields{})
	logger.Info(ctx, "info", Fields{})
	logger.Warn(ctx, "warn", Fields{"k": "v"})
	logger.Error(ctx, "error", Fields{}, errors.New("boom"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != "WARN" || entries[0].Fields["k"] != "v" {
		t.Errorf("warn entry = %+v", entries[0])
	}
	if entries[1].Error != "boom" || entries[1].File == "" {
		t.Errorf("error entry should carry error and caller: %+v", entries[1])
	}
}

func TestStructuredLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.1", InfoLevel)
	logger.SetOutput(&buf)

	ctx := WithRequestID(context.Background(), "req-42")
	logger.WithFields(Fields{"section": "summary"}).WarnErr(ctx, "[TEST] warn", Fields{"year": 2013}, errors.New("empty"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want req-42", e.RequestID)
	}
	if e.Fields["section"] != "summary" || e.Fields["year"] != float64(2013) {
		t.Errorf("Fields = %v", e.Fields)
	}
	if e.Error != "empty" {
		t.Errorf("Error = %q, want empty", e.Error)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
		"verbose": InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
