package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mvnd/internal/logging"
)

func TestConsoleLoggerWritesComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "client.log")
	logger, closer, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "connector")
	component.Info("daemon ready", logging.String("uid", "abc"), logging.Int("pid", 42))
	component.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO [connector] daemon ready", "uid=abc", "pid=42"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record leaked at info level: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level, got %q", line)
	}
}

func TestJSONLoggerNormalizesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "daemon.log")
	logger, closer, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "warn",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "stale daemon removed", "registry_stale_entry", logging.Error(errors.New("dial failed")))
	_ = closer.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode json: %v (%q)", err, content)
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lowercased level, got %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
	if record[logging.FieldEventType] != "registry_stale_entry" {
		t.Fatalf("unexpected event type %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil || record[logging.FieldImpact] == nil {
		t.Fatalf("expected default hint and impact in %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml", OutputPaths: []string{"stderr"}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := logging.ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestTeeLoggerDuplicatesRecords(t *testing.T) {
	var primary, secondary bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&primary, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := logging.TeeLogger(base, logging.ConsoleHandler(&secondary, slog.LevelWarn))

	logger.Info("build started", logging.String(logging.FieldSessionID, "s1"))
	logger.Warn("builder exited", logging.Int("code", 1))

	if got := strings.Count(primary.String(), "\n"); got != 2 {
		t.Fatalf("expected 2 json records, got %d: %q", got, primary.String())
	}
	if strings.Contains(secondary.String(), "build started") {
		t.Fatalf("info record should be filtered from warn handler: %q", secondary.String())
	}
	if !strings.Contains(secondary.String(), "WARN builder exited code=1") {
		t.Fatalf("unexpected console output %q", secondary.String())
	}
}

func TestTeeLoggerWithNilBaseAndNoHandlersIsNoop(t *testing.T) {
	logger := logging.TeeLogger(nil)
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Fatal("expected no-op logger")
	}
}

func TestPruneLogsRemovesOnlyExpiredMatches(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "daemon-old.log")
	fresh := filepath.Join(dir, "daemon-new.log")
	active := filepath.Join(dir, "daemon-active.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, fresh, active, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, active, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.PruneLogs(logging.NewNop(), dir, "daemon-*.log", 5, active)
	if len(removed) != 1 || removed[0] != old {
		t.Fatalf("unexpected removed set %v", removed)
	}
	for _, path := range []string{fresh, active, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
	if got := logging.PruneLogs(nil, dir, "*.txt", 0); got != nil {
		t.Fatalf("retention 0 must disable pruning, got %v", got)
	}
}
