package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasSaneBackpressureAndAccess(t *testing.T) {
	cfg := Default()
	if cfg.Server.MaxStreamBuffer != 256 {
		t.Fatalf("expected default max_stream_buffer=256, got %d", cfg.Server.MaxStreamBuffer)
	}
	if cfg.Manager.Access != "owner" {
		t.Fatalf("expected default manager access=owner, got %q", cfg.Manager.Access)
	}
}

func TestLoadMultiFallsBackToDefaultWhenNothingExists(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadMulti("", filepath.Join(dir, "missing-global.toml"), filepath.Join(dir, "missing-user.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.MaxStreamBuffer != Default().Server.MaxStreamBuffer {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}

func TestLoadMultiUserOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	userPath := filepath.Join(dir, "user.toml")

	if err := os.WriteFile(globalPath, []byte("[server]\nlog_level = \"warn\"\nmax_stream_buffer = 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userPath, []byte("[server]\nlog_level = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadMulti("", globalPath, userPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Fatalf("expected user log_level to win, got %q", cfg.Server.LogLevel)
	}
	if cfg.Server.MaxStreamBuffer != 64 {
		t.Fatalf("expected global max_stream_buffer to survive, got %d", cfg.Server.MaxStreamBuffer)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Client.LogLevel = "trace"
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Client.LogLevel != "trace" {
		t.Fatalf("expected round-tripped log_level=trace, got %q", loaded.Client.LogLevel)
	}
}
