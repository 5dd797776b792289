package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"

	schema "github.com/hanpama/gqltrace/internal/schema"
)

type rootConfig struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logLevel   string
	logFormat  string
	configPath string

	logger *slog.Logger
}

func (cfg *rootConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'l',
		LongName:    "log-level",
		Value:       ffval.NewEnum(&cfg.logLevel, "info", "debug", "warn", "error"),
		Usage:       "log level: info, debug, warn, error",
		Placeholder: "LEVEL",
	})
	fs.AddFlag(ff.FlagConfig{
		LongName:    "log-format",
		Value:       ffval.NewEnum(&cfg.logFormat, "text", "json"),
		Usage:       "log format: text, json",
		Placeholder: "FORMAT",
	})
	fs.AddFlag(ff.FlagConfig{
		ShortName:   'c',
		LongName:    "config",
		Value:       ffval.NewValue(&cfg.configPath),
		Usage:       "TOML config file; flags and GQLTRACE_* variables take precedence",
		Placeholder: "FILE",
	})
}

func (cfg *rootConfig) setup() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.logFormat {
	case "json":
		cfg.logger = slog.New(slog.NewJSONHandler(cfg.stderr, opts))
	default:
		cfg.logger = slog.New(slog.NewTextHandler(cfg.stderr, opts))
	}
	return nil
}

// loadSchema builds the schema defined by the SDL file at path.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	sdl, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.BuildFromSDL(path, string(sdl))
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return sch, nil
}
