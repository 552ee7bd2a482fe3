package dwgimport_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	dwgimport "github.com/goliatone/go-dwgimport"
	"github.com/goliatone/go-dwgimport/pkg/config"
	"github.com/goliatone/go-dwgimport/pkg/orchestrator"
	"github.com/goliatone/go-dwgimport/pkg/testsupport"
)

func TestNewProviders_FollowsConfigOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Native.Providers = []string{config.ProviderConverter, config.ProviderLibreDWG}

	var names []string
	for _, provider := range dwgimport.NewProviders(cfg) {
		names = append(names, provider.Name())
	}
	if diff := cmp.Diff([]string{"converter", "libredwg"}, names); diff != "" {
		t.Fatalf("providers mismatch (-want +got):\n%s", diff)
	}

	cfg.Native.Providers = nil
	if got := dwgimport.NewProviders(cfg); len(got) != 0 {
		t.Fatalf("providers = %d, want 0", len(got))
	}
}

func TestOptionsFromConfig_DegradesWithoutNativeParsers(t *testing.T) {
	cfg := config.Default()
	cfg.Native.Providers = []string{config.ProviderConverter}

	reg := prometheus.NewRegistry()
	orch := dwgimport.NewOrchestrator(dwgimport.OptionsFromConfig(cfg, nil, reg)...)

	result := orch.ParseWithLayers(context.Background(), testsupport.DWGFile("plan.dwg"), []string{"outline"})
	if !result.Success || result.Data.Len() != 4 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "converter URL not configured") {
		t.Fatalf("warnings = %v", result.Warnings)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("metrics were not recorded on the supplied registry")
	}
}

func TestOptionsFromConfig_DefaultRegistererReusedAcrossCalls(t *testing.T) {
	cfg := config.Default()
	cfg.Native.Providers = nil
	cfg.Metrics.Enabled = true

	for i := 0; i < 2; i++ {
		result := dwgimport.SurveyLayers(context.Background(), testsupport.DWGFile("plan.dwg"), dwgimport.OptionsFromConfig(cfg, nil, nil)...)
		if !result.Success {
			t.Fatalf("survey %d = %+v", i, result)
		}
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "dwgimport_operations_total" {
			continue
		}
		total := 0.0
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		if total < 2 {
			t.Fatalf("operations counted %v times, want at least 2", total)
		}
		return
	}
	t.Fatalf("operations counter not on the default registerer")
}

func TestOptionsFromConfig_FixtureDir(t *testing.T) {
	dir := t.TempDir()
	catalog := "entities:\n  - type: LINE\n    layer: site\n    properties: {start: [0, 0], end: [5, 5]}\n"
	if err := os.WriteFile(filepath.Join(dir, "site.yaml"), []byte(catalog), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := config.Default()
	cfg.Native.Providers = nil
	cfg.Fixture.Dir = dir
	cfg.Fixture.Name = "site.yaml"

	result := dwgimport.SurveyLayers(context.Background(), testsupport.DWGFile("plan.dwg"), dwgimport.OptionsFromConfig(cfg, nil, nil)...)
	if !result.Success || len(result.Layers) != 1 || result.Layers[0].Name != "site" {
		t.Fatalf("result = %+v", result)
	}
}

func TestOneShotCallsReleaseLibrary(t *testing.T) {
	library := &testsupport.FakeLibrary{}
	provider := &testsupport.FakeProvider{ProviderName: "fake", Library: library}

	result := dwgimport.ParseWithLayers(context.Background(), testsupport.DWGFile("plan.dwg"), nil, orchestrator.WithProviders(provider))
	if !result.Success || len(result.Warnings) != 0 || result.Data.Len() != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !library.Closed() || library.Outstanding() != 0 {
		t.Fatalf("closed=%v outstanding=%d", library.Closed(), library.Outstanding())
	}
}
