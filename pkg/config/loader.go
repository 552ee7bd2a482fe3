package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPaths maps environment variables (without prefix) to config paths.
// Explicit entries keep keys such as probe_timeout intact.
var envPaths = map[string]string{
	"LOG_LEVEL":            "log.level",
	"LOG_FORMAT":           "log.format",
	"LOG_DEVELOPMENT":      "log.development",
	"NATIVE_PROVIDERS":     "native.providers",
	"NATIVE_PROBE_TIMEOUT": "native.probe_timeout",
	"LIBREDWG_BINARY":      "libredwg.binary",
	"LIBREDWG_TIMEOUT":     "libredwg.timeout",
	"LIBREDWG_TEMP_DIR":    "libredwg.temp_dir",
	"CONVERTER_URL":        "converter.url",
	"CONVERTER_TIMEOUT":    "converter.timeout",
	"CONVERTER_RETRIES":    "converter.retries",
	"CONVERTER_BACKOFF":    "converter.backoff",
	"METRICS_ENABLED":      "metrics.enabled",
	"FIXTURE_DIR":          "fixture.dir",
	"FIXTURE_NAME":         "fixture.name",
}

// EnvVars lists the recognised environment variable names, prefix included.
func EnvVars() []string {
	out := make([]string, 0, len(envPaths))
	for key := range envPaths {
		out = append(out, EnvPrefix+key)
	}
	return out
}

// Loader builds a Config from defaults and the environment.
type Loader struct {
	environ func() []string
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithEnviron replaces os.Environ, mainly for tests.
func WithEnviron(environ func() []string) LoaderOption {
	return func(l *Loader) {
		if environ != nil {
			l.environ = environ
		}
	}
}

// NewLoader returns a loader reading the process environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{environ: os.Environ}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load is shorthand for NewLoader().Load().
func Load() (*Config, error) {
	return NewLoader().Load()
}

// Load merges defaults with DWGIMPORT_* variables, decodes and validates the
// result.
func (l *Loader) Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		EnvironFunc:   l.environ,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.Native.Providers = trimList(cfg.Native.Providers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// transformEnv maps a variable onto its config path. Unknown variables are
// dropped by returning an empty key.
func transformEnv(key, value string) (string, any) {
	path, ok := envPaths[strings.TrimPrefix(key, EnvPrefix)]
	if !ok {
		return "", nil
	}
	return path, value
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
