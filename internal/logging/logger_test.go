package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterLoggerWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf).With("run_id", "run-1")

	logger.Info("fetched", "url", "https://example.test/a.list", "rules", 3)
	logger.Error("fetch failed", "error", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if first["level"] != "info" || first["message"] != "fetched" {
		t.Fatalf("unexpected entry %v", first)
	}
	if first["run_id"] != "run-1" {
		t.Fatalf("expected run_id field, got %v", first["run_id"])
	}
	if first["rules"] != float64(3) {
		t.Fatalf("expected rules=3, got %v", first["rules"])
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if second["level"] != "error" || second["error"] != "boom" {
		t.Fatalf("unexpected entry %v", second)
	}
}

func TestNewRejectsUnknownOptions(t *testing.T) {
	if _, _, err := New(&bytes.Buffer{}, Options{Level: "loud"}); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Fatal("expected invalid format error")
	}
}

func TestNewWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rulexpand.log")
	var console bytes.Buffer

	logger, closer, err := New(&console, Options{Level: "warn", Format: "json", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "file", "a.list")
	if err := closer(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "dropped") {
		t.Fatalf("info entry should be filtered at warn level")
	}
	if !strings.Contains(string(data), "kept") || !strings.Contains(console.String(), "kept") {
		t.Fatalf("expected warn entry in file and console")
	}
}
