// =============================================================================
// config.go - Layered Configuration
// =============================================================================
//
// Settings are resolved in four layers, each overriding the previous one:
//
//  1. Built-in defaults (localhost:10500, utf-8)
//  2. A TOML file given with --config
//  3. JULIUS_* environment variables
//  4. Command-line flags
//
// The result is validated once, after all layers are applied.
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/julius-go/julius/juliusprotocol"
)

// GO CONCEPT: Struct Tags
// -----------------------
// The backquoted strings after each field are "struct tags": metadata read
// at runtime through reflection. The toml tag names the key in the config
// file, the env tag names the environment variable. One struct serves both
// decoders.
//
// Compare with Python: pydantic's `Field(alias="host")` or
// `BaseSettings` with `env_prefix` plays the same role.

// config holds the resolved CLI settings.
type config struct {
	Host        string `toml:"host" env:"JULIUS_HOST"`
	Port        int    `toml:"port" env:"JULIUS_PORT"`
	Encoding    string `toml:"encoding" env:"JULIUS_ENCODING"`
	Raw         bool   `toml:"raw" env:"JULIUS_RAW"`
	RelayAddr   string `toml:"relay_addr" env:"JULIUS_RELAY_ADDR"`
	MetricsAddr string `toml:"metrics_addr" env:"JULIUS_METRICS_ADDR"`
}

// defaultConfig returns the settings used when nothing else is configured.
func defaultConfig() config {
	opts := juliusprotocol.DefaultOptions()
	return config{
		Host:     opts.Host,
		Port:     opts.Port,
		Encoding: opts.Encoding,
	}
}

// loadConfig applies every configuration layer and validates the result.
func loadConfig(args arguments) (config, error) {
	cfg := defaultConfig()

	if args.configPath != "" {
		if err := loadConfigFile(args.configPath, &cfg); err != nil {
			return config{}, err
		}
	}

	// Variables that are not set leave the field untouched.
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("read environment: %w", err)
	}

	args.apply(&cfg)

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// loadConfigFile decodes a TOML file over cfg. Keys missing from the file
// keep their current value; unknown keys are rejected.
func loadConfigFile(path string, cfg *config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("load config: unknown keys %s", strings.Join(keys, ", "))
	}

	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Encoding = strings.TrimSpace(cfg.Encoding)
	return nil
}

// apply copies the flags that were given on the command line into cfg.
func (a arguments) apply(cfg *config) {
	if a.host != "" {
		cfg.Host = a.host
	}
	if a.port != 0 {
		cfg.Port = a.port
	}
	if a.encoding != "" {
		cfg.Encoding = a.encoding
	}
	if a.raw {
		cfg.Raw = true
	}
	if a.relayAddr != "" {
		cfg.RelayAddr = a.relayAddr
	}
	if a.metricsAddr != "" {
		cfg.MetricsAddr = a.metricsAddr
	}
}

// validate reports every problem with the resolved settings at once.
func (c config) validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if _, err := juliusprotocol.LookupEncoding(c.Encoding); err != nil {
		errs = append(errs, err)
	}
	if c.RelayAddr != "" && c.RelayAddr == c.MetricsAddr {
		errs = append(errs, fmt.Errorf("relay and metrics cannot share address %s", c.RelayAddr))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// clientOptions converts the settings into protocol client options. The CLI
// connects explicitly after installing its handlers.
func (c config) clientOptions() juliusprotocol.Options {
	return juliusprotocol.Options{
		AutoConnect: false,
		Host:        c.Host,
		Port:        c.Port,
		Encoding:    c.Encoding,
	}
}
