// Package config loads application configuration from a YAML file,
// environment variables, and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// Config holds all application settings.
type Config struct {
	DBPath   string `koanf:"db" validate:"required"`
	Listen   string `koanf:"listen" validate:"required,hostname_port"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	Sync     bool   `koanf:"sync"`
}

var validate = validator.New()

// Flags registers the command-line flags configuration is read from.
func Flags(fs *flag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("db", "tempo.db", "path to the SQLite database file")
	fs.String("listen", "localhost:8424", "address for the review API")
	fs.String("log_level", "info", "log level (debug, info, warn, error)")
	fs.Bool("sync", false, "sync card sources before serving")
}

// Load merges file, environment (TEMPO_*), and flag values.
func Load(fs *flag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider("TEMPO_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TEMPO_"))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel maps the configured level to slog's numeric scale.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
