package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prophetd/prophetd/internal/config"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: slog.LevelInfo, Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	logger.Info("model fitted", "rows", 42)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["msg"] != "model fitted" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["rows"] != float64(42) {
		t.Errorf("rows = %v", record["rows"])
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: slog.LevelInfo, Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	logger.Info("horizon built", "periods", 30)
	if !strings.Contains(buf.String(), "horizon built") || !strings.Contains(buf.String(), "periods=30") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LoggingConfig{Level: slog.LevelWarn, Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter error: %v", err)
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record emitted below warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn record suppressed")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(config.LoggingConfig{Format: "logfmt"}); err == nil {
		t.Error("New accepted an unknown format")
	}
}
