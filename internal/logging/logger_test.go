package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ppiankov/claimrank/internal/model"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(model.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("scored")
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line at info level, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["msg"] != "scored" {
		t.Errorf("expected msg scored, got %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("expected ts key")
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(model.LogConfig{Level: "warn", Format: "console"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Warn("retrying")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), "WARN") || !strings.Contains(buf.String(), "retrying") {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(model.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(model.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestParseLevel_DefaultsToWarn(t *testing.T) {
	level, err := ParseLevel("")
	if err != nil || level.String() != "warn" {
		t.Errorf("expected warn, got %v (%v)", level, err)
	}
}
