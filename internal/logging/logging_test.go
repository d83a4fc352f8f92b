package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/eliegoudout/zlevels/internal/canvas"
	"github.com/eliegoudout/zlevels/internal/fetch"
	"github.com/eliegoudout/zlevels/internal/zplace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"info", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"bogus", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsole(&buf, ConsoleOptions{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    "zlevels",
	})

	logger.Debug("hidden")
	logger.Info("visible", "done", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("info line missing from output %q", out)
	}
}

func TestFailureLog(t *testing.T) {
	t.Run("records JSONL lines", func(t *testing.T) {
		dir := t.TempDir()
		fl, err := NewFailureLog(dir)
		if err != nil {
			t.Fatalf("NewFailureLog: %v", err)
		}

		failures := []fetch.Failure{
			{Coord: canvas.Coordinate{X: 1, Y: 2}, X: 1, Y: 2, Class: zplace.ClassTransient, Err: "timeout", Attempts: 2},
			{Coord: canvas.Coordinate{X: 3, Y: 4}, X: 3, Y: 4, Class: zplace.ClassMalformed, Err: "bad body", Attempts: 2},
		}
		for _, f := range failures {
			if err := fl.Record(f); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}
		if fl.Count() != 2 {
			t.Errorf("Count = %d, want 2", fl.Count())
		}
		if err := fl.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		file, err := os.Open(fl.Path)
		if err != nil {
			t.Fatalf("open failure log: %v", err)
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		lines := 0
		for scanner.Scan() {
			var got fetch.Failure
			if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
				t.Fatalf("line %d: %v", lines, err)
			}
			if got.X != failures[lines].X || got.Class != failures[lines].Class {
				t.Errorf("line %d = %+v, want %+v", lines, got, failures[lines])
			}
			lines++
		}
		if lines != 2 {
			t.Errorf("got %d lines, want 2", lines)
		}
	})

	t.Run("empty log removed on close", func(t *testing.T) {
		fl, err := NewFailureLog(t.TempDir())
		if err != nil {
			t.Fatalf("NewFailureLog: %v", err)
		}
		if err := fl.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if _, err := os.Stat(fl.Path); !os.IsNotExist(err) {
			t.Error("empty failure log should be removed")
		}
	})

	t.Run("empty dir rejected", func(t *testing.T) {
		if _, err := NewFailureLog(""); err == nil {
			t.Error("expected error for empty dir")
		}
	})
}
