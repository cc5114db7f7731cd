package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Console: &buf, Level: slog.LevelInfo})

	logger.Info("Build started", "project", "Demo")
	logger.Warn("packing skipped")
	logger.Error("write failed", "path", "/tmp/out dir")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	patterns := []string{
		`^\[Info/\d\d:\d\d\]: Build started project=Demo$`,
		`^\[Warn/\d\d:\d\d\]: packing skipped$`,
		`^\[Error/\d\d:\d\d\]: write failed path="/tmp/out dir"$`,
	}
	for i, p := range patterns {
		if !regexp.MustCompile(p).MatchString(lines[i]) {
			t.Errorf("line %d = %q, want match %s", i, lines[i], p)
		}
	}
}

func TestConsoleHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Console: &buf, Level: slog.LevelInfo, Color: true})

	logger.Warn("careful")
	logger.Error("broken")
	logger.Info("plain")

	out := buf.String()
	if !strings.Contains(out, colorYellow+"[Warn/") {
		t.Errorf("warning not yellow: %q", out)
	}
	if !strings.Contains(out, colorRed+"[Error/") {
		t.Errorf("error not red: %q", out)
	}
	if strings.Contains(out, colorYellow+"[Info/") || strings.Contains(out, colorRed+"[Info/") {
		t.Errorf("info colored: %q", out)
	}
}

func TestConsoleHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Console: &buf, Level: slog.LevelDebug})

	logger.With("build", "42").WithGroup("hook").Debug("done", "exit", 0)

	if !strings.Contains(buf.String(), "[Debug/") {
		t.Errorf("missing debug prefix: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "build=42 hook.exit=0") {
		t.Errorf("attrs = %q", buf.String())
	}
}

func TestNew_FanOutToFile(t *testing.T) {
	var console, file bytes.Buffer
	logger := New(Options{Console: &console, Level: slog.LevelWarn, File: &file, FileFormat: "json"})

	logger.Info("only in file", "key", "value")
	logger.Warn("in both")

	if strings.Contains(console.String(), "only in file") {
		t.Errorf("console received info record: %q", console.String())
	}
	if !strings.Contains(console.String(), "in both") {
		t.Errorf("console missing warning: %q", console.String())
	}

	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d records, want 2:\n%s", len(lines), file.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("file record is not JSON: %v", err)
	}
	if rec["msg"] != "only in file" || rec["key"] != "value" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_TextFile(t *testing.T) {
	var file bytes.Buffer
	logger := New(Options{File: &file})
	logger.Debug("detail", "n", 1)
	if !strings.Contains(file.String(), `level=DEBUG msg=detail n=1`) {
		t.Errorf("file = %q", file.String())
	}
}

func TestNew_NoSinks(t *testing.T) {
	logger := New(Options{})
	logger.Error("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".cgt")

	f, err := OpenLogFile(dir, "build")
	if err != nil {
		t.Fatalf("OpenLogFile() error = %v", err)
	}
	if _, err := f.WriteString("first run\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = OpenLogFile(dir, "build")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "build-latest.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second\n" {
		t.Errorf("log file = %q, want truncated content", data)
	}
}
