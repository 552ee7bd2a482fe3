package pipeline_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dwgimport/internal/layers"
	"github.com/goliatone/go-dwgimport/internal/pipeline"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func line(handle, layer string, x0, y0, x1, y1 float64) native.RawEntity {
	return native.RawEntity{Type: "LINE", Handle: handle, Layer: layer, Properties: map[string]any{
		"start": []any{x0, y0},
		"end":   []any{x1, y1},
	}}
}

func ids(data cad.Data) []string {
	var out []string
	for _, entity := range data.Entities() {
		out = append(out, entity.ID)
	}
	return out
}

func TestAssemble_UniqueIDs(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Assemble(pipeline.Input{
		ID:  "doc",
		Now: fixedNow,
		Entities: []native.RawEntity{
			line("A", "walls", 0, 0, 1, 0),
			line("A_2", "walls", 1, 0, 2, 0),
			line("A", "walls", 2, 0, 3, 0),
			line("A", "walls", 3, 0, 4, 0),
		},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []string{"A", "A_2", "A_2_2", "A_3"}
	if diff := cmp.Diff(want, ids(out.Data)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", out.Warnings)
	}
}

func TestAssemble_SkipsUnsupportedWithWarnings(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Assemble(pipeline.Input{
		ID:  "doc",
		Now: fixedNow,
		Entities: []native.RawEntity{
			line("1", "walls", 0, 0, 10, 0),
			{Type: "SPLINE", Handle: "2", Layer: "walls"},
			{Type: "hatch", Layer: ""},
			{Type: "SPLINE", Handle: "4", Layer: "walls"},
		},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if out.Data.Len() != 1 {
		t.Fatalf("entities = %d, want 1", out.Data.Len())
	}
	if diff := cmp.Diff(map[string]int{"SPLINE": 2, "HATCH": 1}, out.Unsupported); diff != "" {
		t.Fatalf("unsupported mismatch (-want +got):\n%s", diff)
	}
	if len(out.Warnings) != 3 {
		t.Fatalf("warnings = %v", out.Warnings)
	}
	if want := `entity entity_2 on layer "0" skipped`; !strings.HasPrefix(out.Warnings[1], want) {
		t.Fatalf("warning = %q, want prefix %q", out.Warnings[1], want)
	}
}

func TestAssemble_FiltersLayersAndBounds(t *testing.T) {
	t.Parallel()

	out, err := pipeline.Assemble(pipeline.Input{
		ID:        "doc",
		Name:      "plan.dwg",
		Now:       fixedNow,
		Selection: layers.NewSelection([]string{"walls"}),
		Entities: []native.RawEntity{
			line("1", "walls", 0, 0, 10, 5),
			line("2", "furniture", -100, -100, 500, 500),
			line("3", "walls", 10, 5, 20, 0),
		},
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "3"}, ids(out.Data)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	want := cad.Bounds{Min: [2]float64{0, 0}, Max: [2]float64{20, 5}}
	if got := out.Data.Bounds(); got != want {
		t.Fatalf("bounds = %+v, want %+v", got, want)
	}
	if diff := cmp.Diff([]string{"walls"}, out.Data.Layers()); diff != "" {
		t.Fatalf("layers mismatch (-want +got):\n%s", diff)
	}
	if out.Data.Name() != "plan.dwg" || !out.Data.CreatedAt().Equal(fixedNow) {
		t.Fatalf("metadata = %q %v", out.Data.Name(), out.Data.CreatedAt())
	}
}

func TestAssemble_DimensionalityAndHeader(t *testing.T) {
	t.Parallel()

	flat, err := pipeline.Assemble(pipeline.Input{
		ID:              "doc",
		Entities:        []native.RawEntity{line("1", "", 0, 0, 1, 1)},
		FallbackVersion: "R2000",
		FallbackUnits:   "inches",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if flat.Data.Dimension() != cad.Dimension2D {
		t.Fatalf("dimension = %q", flat.Data.Dimension())
	}
	if flat.Data.Version() != "R2000" || flat.Data.Units() != "inches" {
		t.Fatalf("fallbacks not applied: %q %q", flat.Data.Version(), flat.Data.Units())
	}

	mm := 4
	elevated, err := pipeline.Assemble(pipeline.Input{
		ID:     "doc",
		Header: native.Header{Version: "AC1032", InsUnits: &mm},
		Entities: []native.RawEntity{
			{Type: "LINE", Properties: map[string]any{"start": []any{0.0, 0.0, 3.0}, "end": []any{1.0, 1.0, 3.0}}},
		},
		FallbackVersion: "R2000",
		FallbackUnits:   "inches",
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if elevated.Data.Dimension() != cad.Dimension3D {
		t.Fatalf("dimension = %q", elevated.Data.Dimension())
	}
	if elevated.Data.Version() != "R2018" || elevated.Data.Units() != "millimeters" {
		t.Fatalf("header not applied: %q %q", elevated.Data.Version(), elevated.Data.Units())
	}

	bare, err := pipeline.Assemble(pipeline.Input{ID: "doc"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if bare.Data.Units() != cad.DefaultUnits || bare.Data.Len() != 0 || bare.Data.Bounds() != (cad.Bounds{}) {
		t.Fatalf("empty document = %+v", bare.Data)
	}
}
