package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Debug("staging files", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "staging files") {
		t.Errorf("log output = %q, want it to contain %q", out, "staging files")
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("log output = %q, want it to contain %q", out, "count=3")
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("server ready", "addr", ":8080")

	out := buf.String()
	if !strings.Contains(out, `"msg":"server ready"`) {
		t.Errorf("log output = %q, want JSON msg field", out)
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry leaked through warn-level logger: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestNewNop_Discards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must accept any call.
	logger.Error("discarded", "key", "value")
}
