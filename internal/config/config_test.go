package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	Flags(fs)
	return fs
}

func TestDefaults(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "tempo.db" {
		t.Errorf("db = %q, want tempo.db", cfg.DBPath)
	}
	if cfg.Listen != "localhost:8424" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
}

func TestFlagOverrides(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse([]string{"--db", "other.db", "--log_level", "debug"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "other.db" {
		t.Errorf("db = %q, want other.db", cfg.DBPath)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.SlogLevel())
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tempo.yaml")
	if err := os.WriteFile(path, []byte("listen: 127.0.0.1:9000\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := newFlagSet()
	if err := fs.Parse([]string{"--config", path}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("listen = %q, want file value", cfg.Listen)
	}
}

func TestInvalidLevelRejected(t *testing.T) {
	fs := newFlagSet()
	if err := fs.Parse([]string{"--log_level", "loud"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Load(fs); err == nil {
		t.Error("expected validation error for bad log level")
	}
}
