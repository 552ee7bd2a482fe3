package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// record wraps a raw entity with lookups that tolerate both parser
// vocabularies. Every accessor returns a zero value when nothing usable is
// found; absent numbers are not an error.
type record struct {
	raw      native.RawEntity
	elevated bool
}

func (r *record) lookup(keys ...string) (any, bool) {
	for _, key := range keys {
		if value, ok := r.raw.Get(key); ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

func (r *record) number(keys ...string) float64 {
	value, ok := r.lookup(keys...)
	if !ok {
		return 0
	}
	n, _ := toFloat(value)
	return n
}

func (r *record) optionalNumber(keys ...string) (float64, bool) {
	value, ok := r.lookup(keys...)
	if !ok {
		return 0, false
	}
	return toFloat(value)
}

func (r *record) text(keys ...string) string {
	value, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func (r *record) flag(keys ...string) (bool, bool) {
	value, ok := r.lookup(keys...)
	if !ok {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		if n, ok := toFloat(v); ok {
			return n != 0, true
		}
	}
	return false, false
}

func (r *record) point(keys ...string) cad.Point {
	value, ok := r.lookup(keys...)
	if !ok {
		return cad.Point{}
	}
	p, _ := r.toPoint(value)
	return p
}

func (r *record) points(keys ...string) []cad.Point {
	value, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]cad.Point, 0, len(items))
	for _, item := range items {
		if p, ok := r.toPoint(item); ok {
			out = append(out, p)
		}
	}
	return out
}

// toPoint accepts [x, y(, z)] arrays and {x, y(, z)} maps.
func (r *record) toPoint(value any) (cad.Point, bool) {
	var x, y, z float64
	switch v := value.(type) {
	case []any:
		if len(v) < 2 {
			return cad.Point{}, false
		}
		x, _ = toFloat(v[0])
		y, _ = toFloat(v[1])
		if len(v) > 2 {
			z, _ = toFloat(v[2])
		}
	case []float64:
		if len(v) < 2 {
			return cad.Point{}, false
		}
		x, y = v[0], v[1]
		if len(v) > 2 {
			z = v[2]
		}
	case map[string]any:
		xv, okX := v["x"]
		yv, okY := v["y"]
		if !okX && !okY {
			return cad.Point{}, false
		}
		x, _ = toFloat(xv)
		y, _ = toFloat(yv)
		z, _ = toFloat(v["z"])
	default:
		return cad.Point{}, false
	}
	if z != 0 {
		r.elevated = true
	}
	return cad.Point{X: x, Y: y}, true
}

func (r *record) color() *int {
	value, ok := r.lookup("colorIndex", "color_index", "color")
	if !ok {
		return nil
	}
	if m, isMap := value.(map[string]any); isMap {
		value, ok = m["index"]
		if !ok {
			return nil
		}
	}
	n, ok := toFloat(value)
	if !ok {
		return nil
	}
	c := int(n)
	return &c
}

func (r *record) lineweight() *float64 {
	n, ok := r.optionalNumber("lineweight", "lineWeight", "linewt")
	if !ok {
		return nil
	}
	return &n
}

func toFloat(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int8:
		n = float64(v)
	case int16:
		n = float64(v)
	case int32:
		n = float64(v)
	case int64:
		n = float64(v)
	case uint:
		n = float64(v)
	case uint8:
		n = float64(v)
	case uint16:
		n = float64(v)
	case uint32:
		n = float64(v)
	case uint64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
