package cad

import (
	"errors"
	"fmt"
)

// EntityKind tags the geometry payload carried by an Entity.
type EntityKind string

const (
	KindLine      EntityKind = "line"
	KindCircle    EntityKind = "circle"
	KindArc       EntityKind = "arc"
	KindPolyline  EntityKind = "polyline"
	KindText      EntityKind = "text"
	KindDimension EntityKind = "dimension"
)

// DefaultLayer is assigned to entities whose source record names no layer.
const DefaultLayer = "0"

// Kinds lists every supported entity kind in a stable order.
func Kinds() []EntityKind {
	return []EntityKind{KindLine, KindCircle, KindArc, KindPolyline, KindText, KindDimension}
}

// Valid reports whether k is one of the six supported kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindLine, KindCircle, KindArc, KindPolyline, KindText, KindDimension:
		return true
	default:
		return false
	}
}

// Point is a 2D coordinate in drawing units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Line is the payload of a line entity.
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Circle is the payload of a circle entity.
type Circle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// Arc is the payload of an arc entity. Angles are in radians.
type Arc struct {
	Center     Point   `json:"center"`
	Radius     float64 `json:"radius"`
	StartAngle float64 `json:"startAngle"`
	EndAngle   float64 `json:"endAngle"`
}

// Polyline is the payload of a polyline entity.
type Polyline struct {
	Vertices []Point `json:"vertices"`
	Closed   bool    `json:"closed"`
}

// Text is the payload of a text entity.
type Text struct {
	Position Point   `json:"position"`
	Value    string  `json:"text"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Dimension is the payload of a dimension entity.
type Dimension struct {
	DefinitionPoint Point   `json:"definitionPoint"`
	TextPoint       Point   `json:"textPoint"`
	Measurement     float64 `json:"measurement"`
}

// Attributes holds the fields shared by every entity kind.
type Attributes struct {
	ID         string   `json:"id"`
	Layer      string   `json:"layer"`
	Color      *int     `json:"color,omitempty"`
	Linetype   string   `json:"linetype,omitempty"`
	Lineweight *float64 `json:"lineweight,omitempty"`
}

// Entity is the canonical tagged union. Exactly one payload pointer is set and
// it always matches Kind. Build values through the New* constructors.
type Entity struct {
	Attributes
	Kind EntityKind `json:"type"`

	Line      *Line      `json:"line,omitempty"`
	Circle    *Circle    `json:"circle,omitempty"`
	Arc       *Arc       `json:"arc,omitempty"`
	Polyline  *Polyline  `json:"polyline,omitempty"`
	Text      *Text      `json:"text,omitempty"`
	Dimension *Dimension `json:"dimension,omitempty"`
}

// NewLine builds a line entity.
func NewLine(attrs Attributes, payload Line) Entity {
	return Entity{Attributes: attrs.normalized(), Kind: KindLine, Line: &payload}
}

// NewCircle builds a circle entity.
func NewCircle(attrs Attributes, payload Circle) Entity {
	return Entity{Attributes: attrs.normalized(), Kind: KindCircle, Circle: &payload}
}

// NewArc builds an arc entity. Angles are in radians.
func NewArc(attrs Attributes, payload Arc) Entity {
	return Entity{Attributes: attrs.normalized(), Kind: KindArc, Arc: &payload}
}

// NewPolyline copies the vertex slice so the entity owns its geometry.
func NewPolyline(attrs Attributes, payload Polyline) Entity {
	payload.Vertices = append([]Point{}, payload.Vertices...)
	return Entity{Attributes: attrs.normalized(), Kind: KindPolyline, Polyline: &payload}
}

// NewText builds a text entity.
func NewText(attrs Attributes, payload Text) Entity {
	return Entity{Attributes: attrs.normalized(), Kind: KindText, Text: &payload}
}

// NewDimension builds a dimension entity.
func NewDimension(attrs Attributes, payload Dimension) Entity {
	return Entity{Attributes: attrs.normalized(), Kind: KindDimension, Dimension: &payload}
}

func (a Attributes) normalized() Attributes {
	if a.Layer == "" {
		a.Layer = DefaultLayer
	}
	if a.Color != nil {
		c := *a.Color
		a.Color = &c
	}
	if a.Lineweight != nil {
		w := *a.Lineweight
		a.Lineweight = &w
	}
	return a
}

// Validate checks the tagged-union invariant: a known kind with exactly its
// own payload populated and a non-empty id and layer.
func (e Entity) Validate() error {
	if e.ID == "" {
		return errors.New("cad: entity id is required")
	}
	if e.Layer == "" {
		return fmt.Errorf("cad: entity %q has no layer", e.ID)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("cad: entity %q has unknown kind %q", e.ID, e.Kind)
	}

	populated := 0
	var matches bool
	check := func(set bool, kind EntityKind) {
		if !set {
			return
		}
		populated++
		if kind == e.Kind {
			matches = true
		}
	}
	check(e.Line != nil, KindLine)
	check(e.Circle != nil, KindCircle)
	check(e.Arc != nil, KindArc)
	check(e.Polyline != nil, KindPolyline)
	check(e.Text != nil, KindText)
	check(e.Dimension != nil, KindDimension)

	if populated != 1 || !matches {
		return fmt.Errorf("cad: entity %q (%s) must carry exactly its own payload, found %d", e.ID, e.Kind, populated)
	}
	return nil
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	out := e
	out.Attributes = e.Attributes.normalized()
	switch {
	case e.Line != nil:
		v := *e.Line
		out.Line = &v
	case e.Circle != nil:
		v := *e.Circle
		out.Circle = &v
	case e.Arc != nil:
		v := *e.Arc
		out.Arc = &v
	case e.Polyline != nil:
		v := *e.Polyline
		v.Vertices = append([]Point{}, e.Polyline.Vertices...)
		out.Polyline = &v
	case e.Text != nil:
		v := *e.Text
		out.Text = &v
	case e.Dimension != nil:
		v := *e.Dimension
		out.Dimension = &v
	}
	return out
}
