// Package fixture provides the synthetic document substituted whenever the
// native DWG path is unavailable or fails. The catalog is expressed as raw
// parser records and is assembled by the same pipeline as real input, so
// callers cannot tell the two apart by type or by filtering behaviour.
package fixture

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dwgimport/internal/layers"
	"github.com/goliatone/go-dwgimport/internal/pipeline"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// DefaultCatalog is the file name of the bundled catalog.
const DefaultCatalog = "floorplan.yaml"

//go:embed catalog/*.yaml
var embeddedCatalog embed.FS

// EmbeddedFS returns the bundled catalog files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedCatalog, "catalog")
	if err != nil {
		panic(err)
	}
	return sub
}

type catalogFile struct {
	Version  string          `yaml:"version"`
	InsUnits *int            `yaml:"insunits"`
	Layers   []catalogLayer  `yaml:"layers"`
	Entities []catalogEntity `yaml:"entities"`
}

type catalogLayer struct {
	Name     string `yaml:"name"`
	Color    *int   `yaml:"color"`
	Linetype string `yaml:"linetype"`
	Off      bool   `yaml:"off"`
	Frozen   bool   `yaml:"frozen"`
}

type catalogEntity struct {
	Type       string         `yaml:"type"`
	Handle     string         `yaml:"handle"`
	Layer      string         `yaml:"layer"`
	Properties map[string]any `yaml:"properties"`
}

// Generator produces fallback documents from a parsed catalog. It is
// immutable and safe for concurrent use.
type Generator struct {
	header   native.Header
	layers   []native.RawLayer
	entities []native.RawEntity
}

// Load parses the named catalog from fsys.
func Load(fsys fs.FS, name string) (*Generator, error) {
	if fsys == nil {
		return nil, fmt.Errorf("fixture: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// Parse builds a generator from catalog YAML.
func Parse(data []byte, source string) (*Generator, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("fixture: catalog %s is empty", source)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("fixture: parse %s: %w", source, err)
	}
	if len(file.Entities) == 0 {
		return nil, fmt.Errorf("fixture: catalog %s defines no entities", source)
	}

	g := &Generator{
		header: native.Header{Version: file.Version, InsUnits: file.InsUnits},
	}
	for _, layer := range file.Layers {
		g.layers = append(g.layers, native.RawLayer{
			Name:     layer.Name,
			Color:    layer.Color,
			Linetype: layer.Linetype,
			Off:      layer.Off,
			Frozen:   layer.Frozen,
		})
	}
	for i, entity := range file.Entities {
		if strings.TrimSpace(entity.Type) == "" {
			return nil, fmt.Errorf("fixture: catalog %s entity %d has no type", source, i)
		}
		g.entities = append(g.entities, native.RawEntity{
			Type:       entity.Type,
			Handle:     entity.Handle,
			Layer:      entity.Layer,
			Properties: entity.Properties,
		})
	}
	return g, nil
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// Default returns the generator for the bundled catalog.
func Default() *Generator {
	defaultOnce.Do(func() {
		gen, err := Load(EmbeddedFS(), DefaultCatalog)
		if err != nil {
			// The catalog is embedded at build time; failing here is a
			// packaging bug.
			panic(err)
		}
		defaultGen = gen
	})
	return defaultGen
}

// Header returns the catalog header.
func (g *Generator) Header() native.Header {
	return g.header
}

// Entities returns the raw catalog records in document order.
func (g *Generator) Entities() []native.RawEntity {
	return append([]native.RawEntity(nil), g.entities...)
}

// Layers returns the catalog layer table.
func (g *Generator) Layers() []native.RawLayer {
	return append([]native.RawLayer(nil), g.layers...)
}

// Request describes one fallback document.
type Request struct {
	ID        string
	Name      string
	Selection layers.Selection
	Now       time.Time
}

// Generate assembles the catalog under the same layer filter contract as
// the native path. Only ID and Now vary between calls.
func (g *Generator) Generate(req Request) (pipeline.Output, error) {
	return pipeline.Assemble(pipeline.Input{
		ID:              req.ID,
		Name:            req.Name,
		Header:          g.header,
		Entities:        g.entities,
		Selection:       req.Selection,
		Now:             req.Now,
		FallbackVersion: cad.ReleaseName(g.header.Version),
	})
}

// Survey returns the per-layer histogram of the catalog.
func (g *Generator) Survey() []cad.LayerInfo {
	return layers.Survey(g.entities, g.layers)
}
