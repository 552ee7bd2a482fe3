// Package logging builds the zap logger used by the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-dwgimport/pkg/config"
)

// Options tweak a logger beyond what config carries.
type Options struct {
	// OutputPaths overrides the zap sinks; stderr by default so command
	// output on stdout stays machine readable.
	OutputPaths []string
	Fields      map[string]string
}

// New builds a logger from the log section of the configuration. An unknown
// level falls back to info.
func New(cfg config.LogConfig, opts Options) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	zapConfig.Level = level

	if strings.EqualFold(cfg.Format, "console") {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	zapConfig.OutputPaths = []string{"stderr"}
	if len(opts.OutputPaths) > 0 {
		zapConfig.OutputPaths = append([]string(nil), opts.OutputPaths...)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}

	fields := make([]zap.Field, 0, len(opts.Fields))
	for key, value := range opts.Fields {
		fields = append(fields, zap.String(key, value))
	}
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}
	return logger, nil
}

// Must wraps New and falls back to a no-op logger on error.
func Must(cfg config.LogConfig, opts Options) *zap.Logger {
	logger, err := New(cfg, opts)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
