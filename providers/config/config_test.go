package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Runtime.MaxConcurrency != 0 {
		t.Errorf("MaxConcurrency = %d, want 0", cfg.Runtime.MaxConcurrency)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Observability.Enabled {
		t.Error("Observability.Enabled should default to false")
	}
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("runtime:\n  max_concurrency: 8\n  deep_copy_outputs: true\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Runtime.MaxConcurrency != 8 {
		t.Errorf("MaxConcurrency = %d, want 8", cfg.Runtime.MaxConcurrency)
	}
	if !cfg.Runtime.DeepCopyOutputs {
		t.Error("DeepCopyOutputs should be true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	os.Setenv("DAGRUN_LOG_LEVEL", "warn")
	defer os.Unsetenv("DAGRUN_LOG_LEVEL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
}
