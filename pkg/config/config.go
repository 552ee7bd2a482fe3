// Package config loads application settings for the dwgimport CLI and for
// embedders that prefer environment-driven wiring over functional options.
// Defaults come from Default(); DWGIMPORT_* environment variables override
// them.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every recognised environment variable.
const EnvPrefix = "DWGIMPORT_"

// Provider names accepted in Native.Providers.
const (
	ProviderLibreDWG  = "libredwg"
	ProviderConverter = "converter"
)

// Config is the root configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Native    NativeConfig    `koanf:"native"`
	LibreDWG  LibreDWGConfig  `koanf:"libredwg"`
	Converter ConverterConfig `koanf:"converter"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Fixture   FixtureConfig   `koanf:"fixture"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Level       string `koanf:"level"`
	Format      string `koanf:"format"`
	Development bool   `koanf:"development"`
}

// NativeConfig controls native parser discovery.
type NativeConfig struct {
	// Providers lists provider names in preference order.
	Providers    []string      `koanf:"providers"`
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
}

// LibreDWGConfig configures the dwgread provider.
type LibreDWGConfig struct {
	Binary  string        `koanf:"binary"`
	Timeout time.Duration `koanf:"timeout"`
	TempDir string        `koanf:"temp_dir"`
}

// ConverterConfig configures the HTTP conversion provider. An empty URL
// leaves the provider registered but unavailable.
type ConverterConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Retries int           `koanf:"retries"`
	Backoff time.Duration `koanf:"backoff"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// FixtureConfig points at an alternative fallback catalog directory. Empty
// uses the embedded catalog.
type FixtureConfig struct {
	Dir  string `koanf:"dir"`
	Name string `koanf:"name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Native: NativeConfig{
			Providers:    []string{ProviderLibreDWG, ProviderConverter},
			ProbeTimeout: 10 * time.Second,
		},
		LibreDWG: LibreDWGConfig{
			Binary:  "dwgread",
			Timeout: 60 * time.Second,
		},
		Converter: ConverterConfig{
			Timeout: 30 * time.Second,
			Retries: 2,
			Backoff: 200 * time.Millisecond,
		},
	}
}

var (
	validLevels  = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
	validFormats = map[string]struct{}{"json": {}, "console": {}}
)

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if _, ok := validLevels[strings.ToLower(c.Log.Level)]; !ok {
		errs = append(errs, fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if _, ok := validFormats[strings.ToLower(c.Log.Format)]; !ok {
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}

	seen := make(map[string]struct{}, len(c.Native.Providers))
	for _, name := range c.Native.Providers {
		switch name {
		case ProviderLibreDWG, ProviderConverter:
		default:
			errs = append(errs, fmt.Errorf("native.providers: unknown provider %q", name))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("native.providers: %q listed twice", name))
		}
		seen[name] = struct{}{}
	}
	if c.Native.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("native.probe_timeout must be positive"))
	}

	if c.LibreDWG.Timeout <= 0 {
		errs = append(errs, errors.New("libredwg.timeout must be positive"))
	}

	if raw := strings.TrimSpace(c.Converter.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("converter.url %q must be an absolute URL", raw))
		}
	}
	if c.Converter.Timeout <= 0 {
		errs = append(errs, errors.New("converter.timeout must be positive"))
	}
	if c.Converter.Retries < 0 {
		errs = append(errs, errors.New("converter.retries must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
