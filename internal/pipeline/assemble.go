// Package pipeline turns raw parser records into a cad.Data document. The
// native path and the fallback fixture both go through Assemble, so they
// filter, normalize and bound entities identically.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-dwgimport/internal/bounds"
	"github.com/goliatone/go-dwgimport/internal/layers"
	"github.com/goliatone/go-dwgimport/internal/normalize"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// Input collects what Assemble needs for one document.
type Input struct {
	ID        string
	Name      string
	Header    native.Header
	Entities  []native.RawEntity
	Selection layers.Selection
	Now       time.Time

	// FallbackVersion is used when the header carries no version.
	FallbackVersion string
	// FallbackUnits is used when the header carries no $INSUNITS.
	FallbackUnits string
}

// Output is the assembled document plus degraded-path bookkeeping.
type Output struct {
	Data     cad.Data
	Warnings []string
	// Unsupported counts skipped records by upper-cased parser type.
	Unsupported map[string]int
}

// Assemble filters by layer, normalizes the survivors in source order,
// makes ids unique, and computes bounds. Records that fail type mapping are
// dropped with one warning each.
func Assemble(in Input) (Output, error) {
	selected := layers.Filter(in.Entities, in.Selection)

	out := Output{Unsupported: make(map[string]int)}
	entities := make([]cad.Entity, 0, len(selected))
	ids := make(map[string]struct{}, len(selected))
	elevated := false

	for _, item := range selected {
		outcome := normalize.Normalize(item.Entity, item.Index)
		if !outcome.Supported() {
			typeName := strings.ToUpper(strings.TrimSpace(item.Entity.Type))
			out.Unsupported[typeName]++
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"entity %s on layer %q skipped: %s",
				normalize.EntityID(item.Entity, item.Index),
				layers.LayerName(item.Entity.Layer),
				outcome.Reason,
			))
			continue
		}

		entity := outcome.Entity
		if _, taken := ids[entity.ID]; taken {
			base := entity.ID + "_" + strconv.Itoa(item.Index)
			entity.ID = base
			for n := 2; ; n++ {
				if _, clash := ids[entity.ID]; !clash {
					break
				}
				entity.ID = base + "_" + strconv.Itoa(n)
			}
		}
		ids[entity.ID] = struct{}{}

		elevated = elevated || outcome.Elevated
		entities = append(entities, entity)
	}

	dimension := cad.Dimension2D
	if elevated {
		dimension = cad.Dimension3D
	}

	data, err := cad.NewData(cad.DataParams{
		ID:        in.ID,
		Name:      in.Name,
		Dimension: dimension,
		Entities:  entities,
		Bounds:    bounds.Compute(entities),
		Units:     resolveUnits(in),
		Version:   resolveVersion(in),
		CreatedAt: in.Now,
		UpdatedAt: in.Now,
	})
	if err != nil {
		return Output{}, fmt.Errorf("pipeline: build document: %w", err)
	}
	out.Data = data
	return out, nil
}

func resolveUnits(in Input) string {
	if in.Header.InsUnits != nil {
		return cad.UnitsName(*in.Header.InsUnits)
	}
	if in.FallbackUnits != "" {
		return in.FallbackUnits
	}
	return cad.DefaultUnits
}

func resolveVersion(in Input) string {
	if version := strings.TrimSpace(in.Header.Version); version != "" {
		return cad.ReleaseName(version)
	}
	return in.FallbackVersion
}
