package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFormatsByEnv(t *testing.T) {
	t.Run("prod writes json at info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, "students-api", "prod", "")
		log.Debug("hidden")
		log.Info("shown")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
			t.Fatalf("not json: %v", err)
		}
		if entry["msg"] != "shown" || entry["service"] != "students-api" {
			t.Fatalf("entry = %v", entry)
		}
	})

	t.Run("dev writes text at debug", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, "students-api", "dev", "").Debug("visible")
		if !strings.Contains(buf.String(), "level=DEBUG") || !strings.Contains(buf.String(), "msg=visible") {
			t.Fatalf("output = %q", buf.String())
		}
	})

	t.Run("explicit level wins", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(&buf, "students-api", "dev", "error")
		log.Warn("dropped")
		if buf.Len() != 0 {
			t.Fatalf("expected nothing below error, got %q", buf.String())
		}
	})
}

func TestCLIDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "students", "cli", "")
	log.Debug("fetching students")
	log.Info("students loaded")
	if buf.Len() != 0 {
		t.Fatalf("expected debug and info to be dropped, got %q", buf.String())
	}

	log.Warn("slow response")
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "service=students\n") {
		t.Fatalf("output = %q", out)
	}

	buf.Reset()
	New(&buf, "students", "cli", "debug").Debug("visible")
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Fatalf("LOG_LEVEL override ignored: %q", buf.String())
	}
}

func TestLevelOr(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := levelOr(in, slog.LevelInfo).String(); got != want {
			t.Errorf("levelOr(%q) = %s, want %s", in, got, want)
		}
	}
}
