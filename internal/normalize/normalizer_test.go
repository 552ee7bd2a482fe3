package normalize_test

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dwgimport/internal/normalize"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := map[string]cad.EntityKind{
		"LINE":             cad.KindLine,
		"line":             cad.KindLine,
		"CIRCLE":           cad.KindCircle,
		"ARC":              cad.KindArc,
		"LWPOLYLINE":       cad.KindPolyline,
		"POLYLINE_2D":      cad.KindPolyline,
		"TEXT":             cad.KindText,
		"MTEXT":            cad.KindText,
		"DIMENSION":        cad.KindDimension,
		"DIMENSION_LINEAR": cad.KindDimension,
		"DIMENSION_ANG2LN": cad.KindDimension,
	}
	for raw, want := range tests {
		got, ok := normalize.KindOf(raw)
		if !ok || got != want {
			t.Fatalf("KindOf(%q) = %q,%v want %q", raw, got, ok, want)
		}
	}
	for _, raw := range []string{"SPLINE", "HATCH", "INSERT", "3DFACE", ""} {
		if _, ok := normalize.KindOf(raw); ok {
			t.Fatalf("KindOf(%q) should be unsupported", raw)
		}
	}
}

func TestNormalize_LibreDWGShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  native.RawEntity
		want cad.Entity
	}{
		{
			name: "line",
			raw: native.RawEntity{Type: "LINE", Handle: "1F", Layer: "walls", Properties: map[string]any{
				"start": []any{0.0, 1.0, 0.0},
				"end":   []any{10.0, 1.0, 0.0},
			}},
			want: cad.NewLine(cad.Attributes{ID: "1F", Layer: "walls"}, cad.Line{
				Start: cad.Point{X: 0, Y: 1},
				End:   cad.Point{X: 10, Y: 1},
			}),
		},
		{
			name: "circle with colour object",
			raw: native.RawEntity{Type: "CIRCLE", Handle: "20", Layer: "doors", Properties: map[string]any{
				"center": []any{5.0, 5.0, 0.0},
				"radius": 2.5,
				"color":  map[string]any{"index": 3.0},
			}},
			want: cad.NewCircle(cad.Attributes{ID: "20", Layer: "doors", Color: intPtr(3)}, cad.Circle{
				Center: cad.Point{X: 5, Y: 5},
				Radius: 2.5,
			}),
		},
		{
			name: "closed lwpolyline by flag",
			raw: native.RawEntity{Type: "LWPOLYLINE", Layer: "rooms", Properties: map[string]any{
				"points": []any{[]any{0.0, 0.0}, []any{4.0, 0.0}, []any{4.0, 3.0}},
				"flag":   512.0,
			}},
			want: cad.NewPolyline(cad.Attributes{ID: "entity_7", Layer: "rooms"}, cad.Polyline{
				Vertices: []cad.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}},
				Closed:   true,
			}),
		},
		{
			name: "linear dimension",
			raw: native.RawEntity{Type: "DIMENSION_LINEAR", Handle: "2A", Properties: map[string]any{
				"def_pt":          []any{10.0, -5.0},
				"text_midpt":      []any{5.0, -7.0},
				"act_measurement": 10.0,
			}},
			want: cad.NewDimension(cad.Attributes{ID: "2A"}, cad.Dimension{
				DefinitionPoint: cad.Point{X: 10, Y: -5},
				TextPoint:       cad.Point{X: 5, Y: -7},
				Measurement:     10,
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := normalize.Normalize(tt.raw, 7)
			if !out.Supported() {
				t.Fatalf("unsupported: %s", out.Reason)
			}
			if err := out.Entity.Validate(); err != nil {
				t.Fatalf("invalid entity: %v", err)
			}
			if diff := cmp.Diff(tt.want, out.Entity); diff != "" {
				t.Fatalf("entity mismatch (-want +got):\n%s", diff)
			}
			if out.Elevated {
				t.Fatalf("flat record reported as elevated")
			}
		})
	}
}

func TestNormalize_PolylineClosedFlag(t *testing.T) {
	t.Parallel()

	points := []any{[]any{0.0, 0.0}, []any{4.0, 0.0}, []any{4.0, 3.0}}
	tests := []struct {
		name   string
		typ    string
		flag   float64
		closed bool
	}{
		{name: "lwpolyline extrusion bit only", typ: "LWPOLYLINE", flag: 1, closed: false},
		{name: "lwpolyline closed with extrusion", typ: "LWPOLYLINE", flag: 513, closed: true},
		{name: "lwpolyline plinegen bit", typ: "lwpolyline", flag: 128, closed: false},
		{name: "polyline 2d group 70 closed", typ: "POLYLINE_2D", flag: 1, closed: true},
		{name: "polyline 3d open", typ: "POLYLINE_3D", flag: 8, closed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := normalize.Normalize(native.RawEntity{Type: tt.typ, Properties: map[string]any{
				"points": points,
				"flag":   tt.flag,
			}}, 0)
			if !out.Supported() {
				t.Fatalf("unsupported: %s", out.Reason)
			}
			poly := out.Entity.Polyline
			if out.Entity.Kind != cad.KindPolyline || poly == nil {
				t.Fatalf("entity kind = %s", out.Entity.Kind)
			}
			if poly.Closed != tt.closed {
				t.Fatalf("closed = %v, want %v", poly.Closed, tt.closed)
			}
		})
	}
}

func TestNormalize_ConverterShapes(t *testing.T) {
	t.Parallel()

	arc := normalize.Normalize(native.RawEntity{Type: "ARC", Layer: "A", Properties: map[string]any{
		"center":        map[string]any{"x": 1.0, "y": 2.0, "z": 0.0},
		"radius":        3.0,
		"startAngleDeg": 90.0,
		"endAngleDeg":   180.0,
		"colorIndex":    1.0,
		"lineType":      "DASHED",
	}}, 0)
	if !arc.Supported() {
		t.Fatalf("arc unsupported: %s", arc.Reason)
	}
	if got := arc.Entity.Arc; math.Abs(got.StartAngle-math.Pi/2) > 1e-12 || math.Abs(got.EndAngle-math.Pi) > 1e-12 {
		t.Fatalf("angles = %v,%v want pi/2,pi", got.StartAngle, got.EndAngle)
	}
	if arc.Entity.Linetype != "DASHED" || arc.Entity.Color == nil || *arc.Entity.Color != 1 {
		t.Fatalf("attributes = %+v", arc.Entity.Attributes)
	}

	line := normalize.Normalize(native.RawEntity{Type: "LINE", Properties: map[string]any{
		"vertices": []any{
			map[string]any{"x": 0.0, "y": 0.0},
			map[string]any{"x": 3.0, "y": 4.0},
		},
	}}, 2)
	if line.Entity.Line == nil || line.Entity.Line.End != (cad.Point{X: 3, Y: 4}) {
		t.Fatalf("vertex-style line = %+v", line.Entity.Line)
	}
	if line.Entity.ID != "entity_2" || line.Entity.Layer != cad.DefaultLayer {
		t.Fatalf("attributes = %+v", line.Entity.Attributes)
	}

	mtext := normalize.Normalize(native.RawEntity{Type: "MTEXT", Properties: map[string]any{
		"position": map[string]any{"x": 1.0, "y": 1.0},
		"text":     `{\fArial|b1;Room\P101}`,
		"height":   2.5,
	}}, 0)
	if got := mtext.Entity.Text.Value; got != "Room\n101" {
		t.Fatalf("mtext = %q", got)
	}
}

func TestNormalize_UnsupportedAndMalformed(t *testing.T) {
	t.Parallel()

	spline := normalize.Normalize(native.RawEntity{Type: "SPLINE", Handle: "99"}, 0)
	if spline.Supported() || !strings.Contains(spline.Reason, "SPLINE") {
		t.Fatalf("spline outcome = %+v", spline)
	}

	untyped := normalize.Normalize(native.RawEntity{}, 0)
	if untyped.Supported() || !strings.Contains(untyped.Reason, "<untyped>") {
		t.Fatalf("untyped outcome = %+v", untyped)
	}

	// Garbage values collapse to zeros rather than failing.
	garbage := normalize.Normalize(native.RawEntity{Type: "CIRCLE", Properties: map[string]any{
		"center": "not a point",
		"radius": math.NaN(),
	}}, 4)
	if !garbage.Supported() {
		t.Fatalf("garbage circle unsupported: %s", garbage.Reason)
	}
	if *garbage.Entity.Circle != (cad.Circle{}) {
		t.Fatalf("garbage circle = %+v", garbage.Entity.Circle)
	}
}

func TestNormalize_DetectsElevation(t *testing.T) {
	t.Parallel()

	out := normalize.Normalize(native.RawEntity{Type: "LINE", Properties: map[string]any{
		"start": []any{0.0, 0.0, 5.0},
		"end":   []any{1.0, 1.0, 5.0},
	}}, 0)
	if !out.Elevated {
		t.Fatalf("z=5 not reported as elevated")
	}

	polyline := normalize.Normalize(native.RawEntity{Type: "LWPOLYLINE", Properties: map[string]any{
		"points":    []any{[]any{0.0, 0.0}, []any{1.0, 0.0}},
		"elevation": 2.0,
	}}, 0)
	if !polyline.Elevated {
		t.Fatalf("elevation property not reported as elevated")
	}
}

func TestNormalize_AcceptsIntegerValues(t *testing.T) {
	t.Parallel()

	out := normalize.Normalize(native.RawEntity{Type: "CIRCLE", Properties: map[string]any{
		"center": []any{75, 75},
		"radius": 25,
	}}, 0)
	want := cad.Circle{Center: cad.Point{X: 75, Y: 75}, Radius: 25}
	if *out.Entity.Circle != want {
		t.Fatalf("circle = %+v, want %+v", out.Entity.Circle, want)
	}
}

func intPtr(v int) *int {
	return &v
}
