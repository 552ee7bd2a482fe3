// Package bounds computes the axis-aligned extent of normalized entities.
//
// Per-kind rules: lines use both endpoints, circles and arcs use
// center ± radius on both axes, polylines use every vertex, text uses its
// anchor point, and dimensions are annotation and never contribute.
//
// Arcs use the full circle, not the swept sector, so the box may be wider
// than the drawn geometry.
package bounds

import (
	"math"

	"github.com/goliatone/go-dwgimport/pkg/cad"
)

type accumulator struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		minX:  math.Inf(1),
		minY:  math.Inf(1),
		maxX:  math.Inf(-1),
		maxY:  math.Inf(-1),
		empty: true,
	}
}

func (a *accumulator) add(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	a.minX = math.Min(a.minX, x)
	a.minY = math.Min(a.minY, y)
	a.maxX = math.Max(a.maxX, x)
	a.maxY = math.Max(a.maxY, y)
	a.empty = false
}

func (a *accumulator) addPoint(p cad.Point) {
	a.add(p.X, p.Y)
}

func (a *accumulator) addDisc(center cad.Point, radius float64) {
	r := math.Abs(radius)
	a.add(center.X-r, center.Y-r)
	a.add(center.X+r, center.Y+r)
}

func (a *accumulator) result() cad.Bounds {
	if a.empty {
		return cad.Bounds{}
	}
	return cad.Bounds{
		Min: [2]float64{a.minX, a.minY},
		Max: [2]float64{a.maxX, a.maxY},
	}
}

// Compute reduces entities to their bounding rectangle. Input without any
// contributing geometry collapses to {[0,0],[0,0]}.
func Compute(entities []cad.Entity) cad.Bounds {
	acc := newAccumulator()
	for _, entity := range entities {
		acc.accumulate(entity)
	}
	return acc.result()
}

func (a *accumulator) accumulate(entity cad.Entity) {
	switch entity.Kind {
	case cad.KindLine:
		if entity.Line != nil {
			a.addPoint(entity.Line.Start)
			a.addPoint(entity.Line.End)
		}
	case cad.KindCircle:
		if entity.Circle != nil {
			a.addDisc(entity.Circle.Center, entity.Circle.Radius)
		}
	case cad.KindArc:
		if entity.Arc != nil {
			a.addDisc(entity.Arc.Center, entity.Arc.Radius)
		}
	case cad.KindPolyline:
		if entity.Polyline != nil {
			for _, vertex := range entity.Polyline.Vertices {
				a.addPoint(vertex)
			}
		}
	case cad.KindText:
		if entity.Text != nil {
			a.addPoint(entity.Text.Position)
		}
	case cad.KindDimension:
		// annotation only
	}
}
