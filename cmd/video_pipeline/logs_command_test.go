package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidpipe/internal/logging"
)

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("ensure log dir: %v", err)
	}
	path := filepath.Join(env.cfg.Paths.LogDir, logging.FileName)
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, _ := runCLI(t, env.configPath, "logs", "-n", "2")
	mustContain(t, out, "second")
	mustContain(t, out, "third")
	if strings.Contains(out, "first") {
		t.Fatalf("expected only trailing lines, got %q", out)
	}
}

func TestLogsWithoutLogFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, _ := runCLI(t, env.configPath, "logs")
	mustContain(t, out, "No log entries yet")
}
