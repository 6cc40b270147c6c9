package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	mustContain(t, out, "Wrote sample configuration to")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	mustContain(t, string(data), "[paths]")
	mustContain(t, string(data), "[credentials]")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err != nil {
		t.Fatalf("first init: %v", err)
	}

	_, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err == nil {
		t.Fatal("expected error for existing config")
	}
	mustContain(t, err.Error(), "already exists")

	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite init: %v", err)
	}
}

func TestConfigShowPrintsResolvedValues(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	mustContain(t, out, "# "+env.configPath)
	mustContain(t, out, "work_dir")
	mustContain(t, out, env.cfg.Paths.WorkDir)
}
