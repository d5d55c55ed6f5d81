package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsoleGetsInfoFileGetsDebug(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "sentinel.log")

	log, closer, err := New(Options{Level: "debug", File: file, MaxSizeMB: 1}, &console)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Debug().Str("symbol", "000001").Msg("tick detail")
	log.Info().Msg("market open")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	out := console.String()
	if strings.Contains(out, "tick detail") {
		t.Errorf("console should not carry debug lines: %q", out)
	}
	if !strings.Contains(out, "market open") {
		t.Errorf("console missing info line: %q", out)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "tick detail") || !strings.Contains(string(data), "market open") {
		t.Errorf("file = %q", data)
	}
}

func TestConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Options{}, &console)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	log.Debug().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(console.String(), "hidden") || !strings.Contains(console.String(), "shown") {
		t.Errorf("console = %q", console.String())
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for invalid level")
	}
}
