package orchestrator

import (
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-dwgimport/pkg/metrics"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLogger injects a zap logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics injects a metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithRegistry injects the native provider registry used to build the
// default adapter.
func WithRegistry(registry *native.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithProviders registers providers on the orchestrator registry in
// preference order. Duplicate names are ignored.
func WithProviders(providers ...native.Provider) Option {
	return func(o *Orchestrator) {
		if o.registry == nil {
			o.registry = native.NewRegistry()
		}
		for _, provider := range providers {
			if provider == nil || o.registry.Has(provider.Name()) {
				continue
			}
			_ = o.registry.Register(provider)
		}
	}
}

// WithAdapter injects a pre-built adapter, bypassing registry, preference
// and probe-timeout options.
func WithAdapter(adapter *native.Adapter) Option {
	return func(o *Orchestrator) {
		o.adapter = adapter
		if adapter != nil {
			o.registry = adapter.Registry()
		}
	}
}

// WithPreference sets the provider names tried first during initialization.
func WithPreference(names ...string) Option {
	return func(o *Orchestrator) {
		o.preference = append([]string(nil), names...)
	}
}

// WithProbeTimeout bounds each provider probe during initialization.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.probeTimeout = timeout
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides document id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithFixtureFS supplies an fs.FS holding fallback catalogs and the catalog
// file name to use. An empty name selects the bundled default name.
func WithFixtureFS(fsys fs.FS, name string) Option {
	return func(o *Orchestrator) {
		o.fixtureFS = fsys
		o.fixtureName = name
	}
}
