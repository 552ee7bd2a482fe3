package dwgimport

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-dwgimport/internal/native/converter"
	"github.com/goliatone/go-dwgimport/internal/native/libredwg"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/config"
	"github.com/goliatone/go-dwgimport/pkg/metrics"
	"github.com/goliatone/go-dwgimport/pkg/native"
	"github.com/goliatone/go-dwgimport/pkg/orchestrator"
)

// File aliases the input boundary so callers can stay on the root package.
type File = cad.File

// Data aliases the normalized document.
type Data = cad.Data

// LayerSelectionResult aliases the survey envelope.
type LayerSelectionResult = cad.LayerSelectionResult

// ParseResult aliases the parse envelope.
type ParseResult = cad.ParseResult

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module. Without providers every call is answered from the fallback fixture.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewProviders builds the bundled native providers named in
// cfg.Native.Providers, in that order. Unknown names are skipped; Validate
// rejects them earlier.
func NewProviders(cfg config.Config) []native.Provider {
	providers := make([]native.Provider, 0, len(cfg.Native.Providers))
	for _, name := range cfg.Native.Providers {
		switch name {
		case config.ProviderLibreDWG:
			providers = append(providers, libredwg.NewProvider(
				libredwg.WithBinary(cfg.LibreDWG.Binary),
				libredwg.WithTimeout(cfg.LibreDWG.Timeout),
				libredwg.WithTempDir(cfg.LibreDWG.TempDir),
			))
		case config.ProviderConverter:
			providers = append(providers, converter.NewProvider(
				converter.WithBaseURL(cfg.Converter.URL),
				converter.WithTimeout(cfg.Converter.Timeout),
				converter.WithRetries(cfg.Converter.Retries),
				converter.WithBackoff(cfg.Converter.Backoff),
			))
		}
	}
	return providers
}

// OptionsFromConfig translates an application configuration into
// orchestrator options. reg may be nil, in which case metrics are only
// recorded when cfg.Metrics.Enabled selects the default registerer.
func OptionsFromConfig(cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) []orchestrator.Option {
	options := []orchestrator.Option{
		orchestrator.WithProviders(NewProviders(cfg)...),
		orchestrator.WithPreference(cfg.Native.Providers...),
		orchestrator.WithProbeTimeout(cfg.Native.ProbeTimeout),
	}
	if logger != nil {
		options = append(options, orchestrator.WithLogger(logger))
	}
	if cfg.Metrics.Enabled || reg != nil {
		options = append(options, orchestrator.WithMetrics(metrics.NewPrometheus(reg)))
	}
	if cfg.Fixture.Dir != "" {
		options = append(options, orchestrator.WithFixtureFS(os.DirFS(cfg.Fixture.Dir), cfg.Fixture.Name))
	}
	return options
}

// SurveyLayers runs a one-shot survey with a fresh orchestrator and releases
// the native library afterwards.
func SurveyLayers(ctx context.Context, file File, options ...orchestrator.Option) LayerSelectionResult {
	orch := orchestrator.New(options...)
	defer func() {
		_ = orch.Cleanup()
	}()
	return orch.SurveyLayers(ctx, file)
}

// ParseWithLayers runs a one-shot parse with a fresh orchestrator and
// releases the native library afterwards.
func ParseWithLayers(ctx context.Context, file File, layers []string, options ...orchestrator.Option) ParseResult {
	orch := orchestrator.New(options...)
	defer func() {
		_ = orch.Cleanup()
	}()
	return orch.ParseWithLayers(ctx, file, layers)
}
