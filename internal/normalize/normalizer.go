package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// Closed-polyline bits. POLYLINE records follow DXF group 70, where 1 means
// closed. LibreDWG's LWPOLYLINE flag uses 1 for "has extrusion" and 512 for
// closed.
const (
	polylineClosedFlag   = 1
	lwPolylineClosedFlag = 512
)

var kindTable = map[string]cad.EntityKind{
	"LINE":        cad.KindLine,
	"CIRCLE":      cad.KindCircle,
	"ARC":         cad.KindArc,
	"LWPOLYLINE":  cad.KindPolyline,
	"POLYLINE":    cad.KindPolyline,
	"POLYLINE_2D": cad.KindPolyline,
	"POLYLINE_3D": cad.KindPolyline,
	"TEXT":        cad.KindText,
	"MTEXT":       cad.KindText,
	"ATTRIB":      cad.KindText,
	"DIMENSION":   cad.KindDimension,
}

// KindOf maps a parser type name onto a canonical kind. Every DIMENSION_*
// variant (LINEAR, ALIGNED, ANG2LN, ...) maps to KindDimension.
func KindOf(rawType string) (cad.EntityKind, bool) {
	name := strings.ToUpper(strings.TrimSpace(rawType))
	if kind, ok := kindTable[name]; ok {
		return kind, true
	}
	if strings.HasPrefix(name, "DIMENSION_") {
		return cad.KindDimension, true
	}
	return "", false
}

// Outcome is the result of normalizing one record: either a valid entity or
// an explicit unsupported marker with a reason.
type Outcome struct {
	Entity      cad.Entity
	Unsupported bool
	Reason      string
	// Elevated is set when any source coordinate had a non-zero Z.
	Elevated bool
}

// Supported reports whether Entity holds a normalized value.
func (o Outcome) Supported() bool {
	return !o.Unsupported
}

func unsupported(reason string) Outcome {
	return Outcome{Unsupported: true, Reason: reason}
}

// EntityID returns the handle when present, else a synthetic id from index.
func EntityID(raw native.RawEntity, index int) string {
	if id := strings.TrimSpace(raw.Handle); id != "" {
		return id
	}
	return fmt.Sprintf("entity_%d", index)
}

// Normalize maps one raw record onto the canonical union. It never panics
// and never returns an error: records it cannot express are reported as
// unsupported.
func Normalize(raw native.RawEntity, index int) (out Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out = unsupported(fmt.Sprintf("malformed %s record: %v", displayType(raw.Type), recovered))
		}
	}()

	kind, ok := KindOf(raw.Type)
	if !ok {
		return unsupported(fmt.Sprintf("unsupported entity type %s", displayType(raw.Type)))
	}

	rec := &record{raw: raw}
	attrs := cad.Attributes{
		ID:         EntityID(raw, index),
		Layer:      strings.TrimSpace(raw.Layer),
		Color:      rec.color(),
		Linetype:   rec.text("linetype", "lineType", "ltype_name"),
		Lineweight: rec.lineweight(),
	}

	var entity cad.Entity
	switch kind {
	case cad.KindLine:
		entity = cad.NewLine(attrs, decodeLine(rec))
	case cad.KindCircle:
		entity = cad.NewCircle(attrs, cad.Circle{
			Center: rec.point("center", "centre"),
			Radius: rec.number("radius", "r"),
		})
	case cad.KindArc:
		entity = cad.NewArc(attrs, decodeArc(rec))
	case cad.KindPolyline:
		entity = cad.NewPolyline(attrs, decodePolyline(rec))
	case cad.KindText:
		entity = cad.NewText(attrs, decodeText(rec))
	case cad.KindDimension:
		entity = cad.NewDimension(attrs, cad.Dimension{
			DefinitionPoint: rec.point("def_pt", "definitionPoint", "definition_point", "anchorPoint"),
			TextPoint:       rec.point("text_midpt", "middleOfText", "textPoint", "text_point"),
			Measurement:     rec.number("act_measurement", "actualMeasurement", "measurement"),
		})
	}

	if elevation, ok := rec.optionalNumber("elevation"); ok && elevation != 0 {
		rec.elevated = true
	}
	return Outcome{Entity: entity, Elevated: rec.elevated}
}

func decodeLine(rec *record) cad.Line {
	// dxf-parser style lines carry their endpoints as a two-vertex list.
	if vertices := rec.points("vertices"); len(vertices) >= 2 {
		if _, hasStart := rec.lookup("start", "startPoint"); !hasStart {
			return cad.Line{Start: vertices[0], End: vertices[len(vertices)-1]}
		}
	}
	return cad.Line{
		Start: rec.point("start", "startPoint", "start_point", "p1"),
		End:   rec.point("end", "endPoint", "end_point", "p2"),
	}
}

func decodeArc(rec *record) cad.Arc {
	arc := cad.Arc{
		Center:     rec.point("center", "centre"),
		Radius:     rec.number("radius", "r"),
		StartAngle: rec.number("start_angle", "startAngle"),
		EndAngle:   rec.number("end_angle", "endAngle"),
	}
	if deg, ok := rec.optionalNumber("startAngleDeg", "start_angle_deg"); ok {
		arc.StartAngle = deg * math.Pi / 180
	}
	if deg, ok := rec.optionalNumber("endAngleDeg", "end_angle_deg"); ok {
		arc.EndAngle = deg * math.Pi / 180
	}
	return arc
}

func decodePolyline(rec *record) cad.Polyline {
	poly := cad.Polyline{Vertices: rec.points("points", "vertices")}
	if poly.Vertices == nil {
		poly.Vertices = []cad.Point{}
	}
	if closed, ok := rec.flag("closed", "is_closed", "shape"); ok {
		poly.Closed = closed
		return poly
	}
	if flags, ok := rec.optionalNumber("flag", "flags"); ok {
		bits := int(flags)
		if strings.EqualFold(strings.TrimSpace(rec.raw.Type), "LWPOLYLINE") {
			poly.Closed = bits&lwPolylineClosedFlag != 0
		} else {
			poly.Closed = bits&polylineClosedFlag != 0
		}
	}
	return poly
}

func decodeText(rec *record) cad.Text {
	return cad.Text{
		Position: rec.point("ins_pt", "insertionPoint", "insertion_point", "position", "startPoint"),
		Value:    CleanText(rec.text("text_value", "text", "contents", "value")),
		Height:   rec.number("height", "text_height", "textHeight", "nominalTextHeight"),
		Rotation: rec.number("rotation", "angle"),
	}
}

func displayType(rawType string) string {
	name := strings.TrimSpace(rawType)
	if name == "" {
		return "<untyped>"
	}
	return strings.ToUpper(name)
}
