package libredwg

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// document is the decoded dwgread output.
type document struct {
	header   native.Header
	entities []native.RawEntity
	layers   []native.RawLayer
	released atomic.Bool
}

func (d *document) Header() native.Header {
	return d.header
}

// Table objects and polyline children that are folded into other records
// instead of being reported as entities.
var skippedObjects = map[string]struct{}{
	"VERTEX_2D":    {},
	"VERTEX_3D":    {},
	"VERTEX_MESH":  {},
	"VERTEX_PFACE": {},
	"SEQEND":       {},
}

// decode turns dwgread JSON into a document. Layer and linetype references
// are resolved by absolute handle; polyline vertices stored as separate
// VERTEX records are attached to their owner under "points".
func decode(payload []byte) (*document, error) {
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("libredwg: output is not valid JSON")
	}
	root := gjson.ParseBytes(payload)
	objects := root.Get("OBJECTS")
	if !objects.IsArray() {
		return nil, fmt.Errorf("libredwg: output has no OBJECTS array")
	}

	doc := &document{header: decodeHeader(root)}

	layerNames := make(map[uint64]string)
	linetypeNames := make(map[uint64]string)
	vertices := make(map[uint64][]any)
	layerLinetypes := make(map[int]uint64)

	objects.ForEach(func(_, obj gjson.Result) bool {
		switch strings.ToUpper(obj.Get("object").String()) {
		case "LAYER":
			name := obj.Get("name").String()
			if handle, ok := handleValue(obj.Get("handle")); ok {
				layerNames[handle] = name
			}
			if ref, ok := referenceValue(obj.Get("ltype")); ok {
				layerLinetypes[len(doc.layers)] = ref
			}
			doc.layers = append(doc.layers, decodeLayer(obj, name))
		case "LTYPE":
			if handle, ok := handleValue(obj.Get("handle")); ok {
				linetypeNames[handle] = obj.Get("name").String()
			}
		}
		if vertexType := strings.ToUpper(obj.Get("entity").String()); strings.HasPrefix(vertexType, "VERTEX_") {
			if owner, ok := referenceValue(obj.Get("ownerhandle")); ok {
				if point := obj.Get("point"); point.IsArray() {
					vertices[owner] = append(vertices[owner], point.Value())
				}
			}
		}
		return true
	})
	for index, ref := range layerLinetypes {
		if doc.layers[index].Linetype == "" {
			doc.layers[index].Linetype = linetypeNames[ref]
		}
	}

	objects.ForEach(func(_, obj gjson.Result) bool {
		entityType := strings.ToUpper(obj.Get("entity").String())
		if entityType == "" {
			return true
		}
		if _, skip := skippedObjects[entityType]; skip {
			return true
		}

		props, _ := obj.Value().(map[string]any)
		if props == nil {
			props = map[string]any{}
		}
		raw := native.RawEntity{
			Type:       entityType,
			Properties: props,
		}
		handle, hasHandle := handleValue(obj.Get("handle"))
		if hasHandle {
			raw.Handle = strings.ToUpper(strconv.FormatUint(handle, 16))
		}
		if ref, ok := referenceValue(obj.Get("layer")); ok {
			raw.Layer = layerNames[ref]
		}
		if ref, ok := referenceValue(obj.Get("ltype")); ok {
			if name := linetypeNames[ref]; name != "" {
				props["ltype_name"] = name
			}
		}
		if hasHandle {
			if points, ok := vertices[handle]; ok {
				if _, present := props["points"]; !present {
					props["points"] = points
				}
			}
		}
		doc.entities = append(doc.entities, raw)
		return true
	})

	return doc, nil
}

func decodeHeader(root gjson.Result) native.Header {
	header := native.Header{}
	for _, path := range []string{"HEADER.ACADVER", "FILEHEADER.version", "FILEHEADER.from_version"} {
		if value := strings.TrimSpace(root.Get(path).String()); value != "" {
			header.Version = normaliseVersion(value)
			break
		}
	}
	if units := root.Get("HEADER.INSUNITS"); units.Exists() && units.Type == gjson.Number {
		code := int(units.Int())
		header.InsUnits = &code
	}
	return header
}

// normaliseVersion maps dwgread's R_2018 style names onto release names and
// AC10xx codes through cad.ReleaseName.
func normaliseVersion(value string) string {
	upper := strings.ToUpper(value)
	if strings.HasPrefix(upper, "R_") {
		return "R" + strings.TrimPrefix(upper, "R_")
	}
	return cad.ReleaseName(upper)
}

func decodeLayer(obj gjson.Result, name string) native.RawLayer {
	layer := native.RawLayer{
		Name:     name,
		Linetype: obj.Get("ltype_name").String(),
	}

	color := obj.Get("color")
	if color.IsObject() {
		color = color.Get("index")
	}
	if color.Exists() && color.Type == gjson.Number {
		index := int(color.Int())
		if index < 0 {
			layer.Off = true
			index = -index
		}
		layer.Color = &index
	}

	flag := obj.Get("flag").Int()
	layer.Frozen = flag&1 != 0 || obj.Get("frozen").Bool()
	if off := obj.Get("off"); off.Exists() {
		layer.Off = layer.Off || off.Bool()
	}
	if on := obj.Get("on"); on.Exists() && !on.Bool() {
		layer.Off = true
	}
	return layer
}

// handleValue reads an object handle, serialised by dwgread as
// [code, size, value].
func handleValue(result gjson.Result) (uint64, bool) {
	if !result.IsArray() {
		return 0, false
	}
	parts := result.Array()
	if len(parts) < 3 {
		return 0, false
	}
	return parts[2].Uint(), true
}

// referenceValue reads a handle reference, serialised as
// [code, size, value, absolute]; the absolute handle wins when present.
func referenceValue(result gjson.Result) (uint64, bool) {
	if !result.IsArray() {
		return 0, false
	}
	parts := result.Array()
	switch {
	case len(parts) >= 4:
		return parts[3].Uint(), parts[3].Uint() != 0
	case len(parts) == 3:
		return parts[2].Uint(), parts[2].Uint() != 0
	default:
		return 0, false
	}
}
