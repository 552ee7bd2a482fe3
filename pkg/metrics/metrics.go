// Package metrics records pipeline activity. The orchestrator talks to the
// Recorder interface; Prometheus is the bundled implementation.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names.
const (
	OperationSurvey = "survey"
	OperationParse  = "parse"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeFatal    = "fatal"
)

// Recorder receives pipeline events.
type Recorder interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
	RecordFallback(operation, reason string)
	RecordWarnings(operation string, count int)
	RecordUnsupported(rawType string, count int)
	RecordInitialization(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}
func (nopRecorder) RecordFallback(string, string)                  {}
func (nopRecorder) RecordWarnings(string, int)                     {}
func (nopRecorder) RecordUnsupported(string, int)                  {}
func (nopRecorder) RecordInitialization(string)                    {}

// Nop returns a recorder that discards everything.
func Nop() Recorder {
	return nopRecorder{}
}

// Prometheus exports pipeline metrics as Prometheus collectors.
type Prometheus struct {
	operations     *prometheus.CounterVec
	durations      *prometheus.HistogramVec
	fallbacks      *prometheus.CounterVec
	warnings       *prometheus.CounterVec
	unsupported    *prometheus.CounterVec
	initialization *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the collectors on reg. A nil reg uses the default
// registerer. Collectors already registered by an earlier call are reused, so
// several recorders on one registerer share their series.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Prometheus{
		operations: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwgimport_operations_total",
				Help: "Survey and parse calls by outcome",
			},
			[]string{"operation", "outcome"},
		)),
		durations: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dwgimport_operation_duration_seconds",
				Help:    "Time spent in survey and parse calls",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		)),
		fallbacks: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwgimport_fallbacks_total",
				Help: "Calls answered from the fallback fixture",
			},
			[]string{"operation", "reason"},
		)),
		warnings: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwgimport_warnings_total",
				Help: "Warnings attached to degraded results",
			},
			[]string{"operation"},
		)),
		unsupported: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwgimport_unsupported_entities_total",
				Help: "Entity records dropped because their type is not supported",
			},
			[]string{"type"},
		)),
		initialization: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwgimport_native_initializations_total",
				Help: "Settled native parser initializations by result",
			},
			[]string{"result"},
		)),
	}
}

// register adds collector to reg, returning the existing collector when an
// identical one is already registered. Any other registration error leaves
// the collector unregistered but usable.
func register[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	err := reg.Register(collector)
	if err == nil {
		return collector
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	return collector
}
func (p *Prometheus) ObserveOperation(operation, outcome string, duration time.Duration) {
	p.operations.WithLabelValues(operation, outcome).Inc()
	p.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *Prometheus) RecordFallback(operation, reason string) {
	p.fallbacks.WithLabelValues(operation, reason).Inc()
}

func (p *Prometheus) RecordWarnings(operation string, count int) {
	if count <= 0 {
		return
	}
	p.warnings.WithLabelValues(operation).Add(float64(count))
}

func (p *Prometheus) RecordUnsupported(rawType string, count int) {
	if count <= 0 {
		return
	}
	p.unsupported.WithLabelValues(rawType).Add(float64(count))
}

func (p *Prometheus) RecordInitialization(result string) {
	p.initialization.WithLabelValues(result).Inc()
}

// Timer measures elapsed time from construction.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() Timer {
	return Timer{start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
