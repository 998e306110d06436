package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// logConfig selects how diagnostics are written to stderr.
type logConfig struct {
	Level   string `env:"JULIUS_LOG_LEVEL" envDefault:"warn"`
	NoColor bool   `env:"JULIUS_LOG_NOCOLOR"`
}

// loadLogConfig reads the logging settings from the environment.
func loadLogConfig() (logConfig, error) {
	var cfg logConfig
	if err := env.Parse(&cfg); err != nil {
		return logConfig{}, fmt.Errorf("read log settings: %w", err)
	}
	if _, err := parseLevel(cfg.Level); err != nil {
		return logConfig{}, err
	}
	return cfg, nil
}

// parseLevel accepts zerolog level names plus "diagnostics" as an alias
// for trace.
func parseLevel(raw string) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.WarnLevel, nil
	case "diagnostics":
		return zerolog.TraceLevel, nil
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("JULIUS_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// newLogger builds the console logger handed to the protocol client.
// Protocol output goes to stdout, so diagnostics stay on w (stderr).
func newLogger(w io.Writer, cfg logConfig) zerolog.Logger {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "julius").Logger()
}
