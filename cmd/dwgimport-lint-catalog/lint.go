package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-dwgimport/internal/fixture"
	"github.com/goliatone/go-dwgimport/internal/layers"
	"github.com/goliatone/go-dwgimport/internal/normalize"
	"github.com/goliatone/go-dwgimport/pkg/cad"
)

type violation struct {
	file     string
	location string
	message  string
}

// lintCatalog parses a catalog and reports records that the pipeline would
// skip, entities that land on undeclared layers and degenerate geometry.
// Parse errors are returned as errors, not violations.
func lintCatalog(file string, raw []byte, strict bool) ([]violation, error) {
	gen, err := fixture.Parse(raw, file)
	if err != nil {
		return nil, err
	}

	var result []violation
	report := func(path []string, format string, args ...any) {
		result = append(result, violation{
			file:     file,
			location: formatLocation(path),
			message:  fmt.Sprintf(format, args...),
		})
	}

	declared := make(map[string]int)
	for i, row := range gen.Layers() {
		path := []string{"layers", strconv.Itoa(i)}
		name := strings.TrimSpace(row.Name)
		if name == "" {
			report(path, "layer name is empty")
			continue
		}
		if first, dup := declared[name]; dup {
			report(path, "layer %q already declared at layers > %d", name, first)
			continue
		}
		declared[name] = i
	}

	used := make(map[string]struct{})
	for i, entity := range gen.Entities() {
		path := []string{"entities", strconv.Itoa(i)}
		layer := layers.LayerName(entity.Layer)
		used[layer] = struct{}{}

		if len(declared) > 0 {
			if _, ok := declared[layer]; !ok {
				report(path, "layer %q is not declared in the layer table", layer)
			}
		}

		outcome := normalize.Normalize(entity, i)
		if !outcome.Supported() {
			report(path, "%s", outcome.Reason)
			continue
		}
		if err := outcome.Entity.Validate(); err != nil {
			report(path, "%v", err)
			continue
		}
		for _, problem := range geometryProblems(outcome.Entity) {
			report(path, "%s: %s", outcome.Entity.Kind, problem)
		}
	}

	if strict {
		var unused []string
		for name := range declared {
			if _, ok := used[name]; !ok {
				unused = append(unused, name)
			}
		}
		sort.Strings(unused)
		for _, name := range unused {
			report([]string{"layers", strconv.Itoa(declared[name])}, "layer %q has no entities", name)
		}
	}

	return result, nil
}

func geometryProblems(entity cad.Entity) []string {
	var problems []string
	switch entity.Kind {
	case cad.KindLine:
		if entity.Line.Start == entity.Line.End {
			problems = append(problems, "start and end coincide")
		}
	case cad.KindCircle:
		if !(entity.Circle.Radius > 0) {
			problems = append(problems, "radius must be positive")
		}
	case cad.KindArc:
		if !(entity.Arc.Radius > 0) {
			problems = append(problems, "radius must be positive")
		}
		if entity.Arc.StartAngle == entity.Arc.EndAngle {
			problems = append(problems, "start and end angles coincide")
		}
	case cad.KindPolyline:
		if len(entity.Polyline.Vertices) < 2 {
			problems = append(problems, "needs at least two vertices")
		}
	case cad.KindText:
		if strings.TrimSpace(entity.Text.Value) == "" {
			problems = append(problems, "text is empty")
		}
		if math.IsNaN(entity.Text.Height) || entity.Text.Height < 0 {
			problems = append(problems, "height must not be negative")
		}
	}
	return problems
}

func formatLocation(path []string) string {
	return strings.Join(path, " > ")
}
