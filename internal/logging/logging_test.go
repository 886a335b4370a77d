package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", "json")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("portal started", slog.String("addr", ":8080"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "portal started" || rec["addr"] != ":8080" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestTextFormatDefault(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "debug", "")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("sweep", slog.Int("removed", 3))

	if !strings.Contains(buf.String(), "msg=sweep") || !strings.Contains(buf.String(), "removed=3") {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := New("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
