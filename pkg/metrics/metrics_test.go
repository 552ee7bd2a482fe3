package metrics_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-dwgimport/pkg/metrics"
)

// counters flattens every counter sample into "name{k=v,...}" -> value.
func counters(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() == nil {
				continue
			}
			key := family.GetName() + "{"
			for i, label := range metric.GetLabel() {
				if i > 0 {
					key += ","
				}
				key += label.GetName() + "=" + label.GetValue()
			}
			key += "}"
			out[key] = metric.GetCounter().GetValue()
		}
	}
	return out
}

func TestPrometheus_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg)

	rec.ObserveOperation(metrics.OperationParse, metrics.OutcomeDegraded, 20*time.Millisecond)
	rec.ObserveOperation(metrics.OperationParse, metrics.OutcomeDegraded, 30*time.Millisecond)
	rec.RecordFallback(metrics.OperationParse, "unavailable")
	rec.RecordWarnings(metrics.OperationParse, 3)
	rec.RecordWarnings(metrics.OperationSurvey, 0)
	rec.RecordUnsupported("SPLINE", 2)
	rec.RecordUnsupported("HATCH", 0)
	rec.RecordInitialization("degraded")

	want := map[string]float64{
		"dwgimport_operations_total{operation=parse,outcome=degraded}":  2,
		"dwgimport_fallbacks_total{operation=parse,reason=unavailable}": 1,
		"dwgimport_warnings_total{operation=parse}":                     3,
		"dwgimport_unsupported_entities_total{type=SPLINE}":             2,
		"dwgimport_native_initializations_total{result=degraded}":       1,
	}
	if diff := cmp.Diff(want, counters(t, reg)); diff != "" {
		t.Fatalf("counters mismatch (-want +got):\n%s", diff)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "dwgimport_operation_duration_seconds" {
			continue
		}
		if got := family.GetMetric()[0].GetHistogram().GetSampleCount(); got != 2 {
			t.Fatalf("histogram samples = %d", got)
		}
		return
	}
	t.Fatalf("duration histogram not registered")
}

func TestPrometheus_SharesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := metrics.NewPrometheus(reg)
	second := metrics.NewPrometheus(reg)

	first.RecordFallback(metrics.OperationSurvey, "unavailable")
	second.RecordFallback(metrics.OperationSurvey, "unavailable")

	want := map[string]float64{
		"dwgimport_fallbacks_total{operation=survey,reason=unavailable}": 2,
	}
	if diff := cmp.Diff(want, counters(t, reg)); diff != "" {
		t.Fatalf("counters mismatch (-want +got):\n%s", diff)
	}
}

func TestNop(t *testing.T) {
	rec := metrics.Nop()
	rec.ObserveOperation("x", "y", time.Second)
	rec.RecordFallback("x", "y")
	rec.RecordWarnings("x", 1)
	rec.RecordUnsupported("x", 1)
	rec.RecordInitialization("x")
}

func TestTimer(t *testing.T) {
	timer := metrics.NewTimer()
	time.Sleep(time.Millisecond)
	if timer.Elapsed() <= 0 {
		t.Fatalf("elapsed = %v", timer.Elapsed())
	}
}
