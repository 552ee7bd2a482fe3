package cad

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// Dimensionality discriminates flat drawings from drawings carrying elevation.
type Dimensionality string

const (
	Dimension2D Dimensionality = "2d"
	Dimension3D Dimensionality = "3d"
)

// Bounds is an axis-aligned rectangle expressed as min/max corners.
type Bounds struct {
	Min [2]float64 `json:"min"`
	Max [2]float64 `json:"max"`
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 {
	return b.Max[0] - b.Min[0]
}

// Height returns the vertical extent.
func (b Bounds) Height() float64 {
	return b.Max[1] - b.Min[1]
}

// Contains reports whether p lies inside or on the rectangle.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Min[0] && p.X <= b.Max[0] && p.Y >= b.Min[1] && p.Y <= b.Max[1]
}

// LayerInfo summarises one layer for selection UIs.
type LayerInfo struct {
	Name        string         `json:"name"`
	EntityCount int            `json:"entityCount"`
	EntityTypes map[string]int `json:"entityTypes"`
	IsVisible   bool           `json:"isVisible"`
	Color       *int           `json:"color,omitempty"`
	Linetype    string         `json:"linetype,omitempty"`
}

// DataParams carries the inputs for NewData.
type DataParams struct {
	ID        string
	Name      string
	Dimension Dimensionality
	Entities  []Entity
	Bounds    Bounds
	Units     string
	Version   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Data is the normalized document handed to downstream consumers. It is
// immutable after construction: accessors return copies.
type Data struct {
	id        string
	name      string
	dimension Dimensionality
	entities  []Entity
	bounds    Bounds
	layers    []string
	units     string
	version   string
	createdAt time.Time
	updatedAt time.Time
}

// NewData validates the entities and derives the layer set from them.
func NewData(params DataParams) (Data, error) {
	if params.ID == "" {
		return Data{}, errors.New("cad: document id is required")
	}

	entities := make([]Entity, 0, len(params.Entities))
	for _, entity := range params.Entities {
		if err := entity.Validate(); err != nil {
			return Data{}, err
		}
		entities = append(entities, entity.Clone())
	}

	dimension := params.Dimension
	if dimension == "" {
		dimension = Dimension2D
	}
	updated := params.UpdatedAt
	if updated.IsZero() {
		updated = params.CreatedAt
	}

	return Data{
		id:        params.ID,
		name:      params.Name,
		dimension: dimension,
		entities:  entities,
		bounds:    params.Bounds,
		layers:    DistinctLayers(entities),
		units:     params.Units,
		version:   params.Version,
		createdAt: params.CreatedAt,
		updatedAt: updated,
	}, nil
}

// MustNewData panics when construction fails. Useful for fixtures and tests.
func MustNewData(params DataParams) Data {
	data, err := NewData(params)
	if err != nil {
		panic(err)
	}
	return data
}

// DistinctLayers returns the sorted set of layer names used by entities.
func DistinctLayers(entities []Entity) []string {
	seen := make(map[string]struct{}, len(entities))
	out := make([]string, 0)
	for _, entity := range entities {
		if _, ok := seen[entity.Layer]; ok {
			continue
		}
		seen[entity.Layer] = struct{}{}
		out = append(out, entity.Layer)
	}
	sort.Strings(out)
	return out
}

func (d Data) ID() string                { return d.id }
func (d Data) Name() string              { return d.name }
func (d Data) Dimension() Dimensionality { return d.dimension }
func (d Data) Bounds() Bounds            { return d.bounds }
func (d Data) Units() string             { return d.units }
func (d Data) Version() string           { return d.version }
func (d Data) CreatedAt() time.Time      { return d.createdAt }
func (d Data) UpdatedAt() time.Time      { return d.updatedAt }

// Len returns the number of entities.
func (d Data) Len() int {
	return len(d.entities)
}

// Entities returns a deep copy of the entities in source document order.
func (d Data) Entities() []Entity {
	out := make([]Entity, len(d.entities))
	for i, entity := range d.entities {
		out[i] = entity.Clone()
	}
	return out
}

// Layers returns the distinct layer names present in the entities.
func (d Data) Layers() []string {
	return append([]string{}, d.layers...)
}

// HasLayer reports whether any entity lives on the named layer.
func (d Data) HasLayer(name string) bool {
	idx := sort.SearchStrings(d.layers, name)
	return idx < len(d.layers) && d.layers[idx] == name
}

type dataWire struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Dimension Dimensionality `json:"dimension"`
	Entities  []Entity       `json:"entities"`
	Bounds    Bounds         `json:"bounds"`
	Layers    []string       `json:"layers"`
	Units     string         `json:"units"`
	Version   string         `json:"version"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// MarshalJSON exposes the document through its wire shape.
func (d Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataWire{
		ID:        d.id,
		Name:      d.name,
		Dimension: d.dimension,
		Entities:  d.entities,
		Bounds:    d.bounds,
		Layers:    d.layers,
		Units:     d.units,
		Version:   d.version,
		CreatedAt: d.createdAt,
		UpdatedAt: d.updatedAt,
	})
}

// UnmarshalJSON rebuilds a document through NewData, so a decoded layer list
// never disagrees with the decoded entities.
func (d *Data) UnmarshalJSON(raw []byte) error {
	var wire dataWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return err
	}
	built, err := NewData(DataParams{
		ID:        wire.ID,
		Name:      wire.Name,
		Dimension: wire.Dimension,
		Entities:  wire.Entities,
		Bounds:    wire.Bounds,
		Units:     wire.Units,
		Version:   wire.Version,
		CreatedAt: wire.CreatedAt,
		UpdatedAt: wire.UpdatedAt,
	})
	if err != nil {
		return err
	}
	*d = built
	return nil
}
