package converter

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/goliatone/go-dwgimport/pkg/native"
)

// response is the service payload:
//
//	{"header": {"version": "AC1032", "insunits": 4},
//	 "entities": [{"type": "LINE", "handle": "1F", "layer": "walls", ...}],
//	 "layers": [{"name": "walls", "color": 7, "linetype": "CONTINUOUS", "frozen": false, "off": false}]}
type response struct {
	Header struct {
		Version  string `json:"version"`
		InsUnits *int   `json:"insunits"`
	} `json:"header"`
	Entities []map[string]any `json:"entities"`
	Layers   []layerRow       `json:"layers"`
}

type layerRow struct {
	Name     string `json:"name"`
	Color    *int   `json:"color"`
	Linetype string `json:"linetype"`
	Frozen   bool   `json:"frozen"`
	Off      bool   `json:"off"`
	Visible  *bool  `json:"visible"`
}

type document struct {
	header   native.Header
	entities []native.RawEntity
	layers   []native.RawLayer
	released atomic.Bool
}

func (d *document) Header() native.Header {
	return d.header
}

func (r response) document() *document {
	doc := &document{
		header: native.Header{
			Version:  strings.TrimSpace(r.Header.Version),
			InsUnits: r.Header.InsUnits,
		},
		entities: make([]native.RawEntity, 0, len(r.Entities)),
		layers:   make([]native.RawLayer, 0, len(r.Layers)),
	}
	for _, props := range r.Entities {
		if props == nil {
			props = map[string]any{}
		}
		doc.entities = append(doc.entities, native.RawEntity{
			Type:       strings.ToUpper(stringField(props, "type")),
			Handle:     stringField(props, "handle"),
			Layer:      stringField(props, "layer"),
			Properties: props,
		})
	}
	for _, row := range r.Layers {
		layer := native.RawLayer{
			Name:     row.Name,
			Color:    row.Color,
			Linetype: row.Linetype,
			Frozen:   row.Frozen,
			Off:      row.Off,
		}
		if row.Visible != nil && !*row.Visible {
			layer.Off = true
		}
		doc.layers = append(doc.layers, layer)
	}
	return doc
}

func stringField(props map[string]any, key string) string {
	switch value := props[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}
