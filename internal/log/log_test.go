package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden message")
	logger.WithField("file", "a.txt").Warn("visible message")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("Info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "a.txt") {
		t.Errorf("Warning not logged: %q", out)
	}
}

func TestNewLoggerFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "txt2voc.log")
	logger, err := NewLogger(Options{File: path, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("written twice")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "written twice") || !strings.Contains(buf.String(), "written twice") {
		t.Errorf("Got file %q and output %q", data, buf.String())
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	if _, err := NewLogger(Options{Level: "verbose"}); err == nil {
		t.Error("An invalid level succeeded")
	}
}
