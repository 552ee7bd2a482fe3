package layers

import (
	"sort"
	"strings"

	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// Selection is an allow-list of layer names. The zero value, or a selection
// built from no names, allows every layer.
type Selection struct {
	names map[string]struct{}
}

// NewSelection builds a selection from names, ignoring blanks.
func NewSelection(names []string) Selection {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	if len(set) == 0 {
		return Selection{}
	}
	return Selection{names: set}
}

// All reports whether the selection lets every layer through.
func (s Selection) All() bool {
	return len(s.names) == 0
}

// Allows reports whether entities on layer survive the filter. An empty
// layer name is treated as the default layer.
func (s Selection) Allows(layer string) bool {
	if s.All() {
		return true
	}
	_, ok := s.names[LayerName(layer)]
	return ok
}

// Names returns the selected names sorted, or nil for an all-layers selection.
func (s Selection) Names() []string {
	if s.All() {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LayerName applies the default-layer rule to a raw layer name.
func LayerName(layer string) string {
	trimmed := strings.TrimSpace(layer)
	if trimmed == "" {
		return cad.DefaultLayer
	}
	return trimmed
}

// Indexed pairs a raw entity with its position in the source document.
type Indexed struct {
	Index  int
	Entity native.RawEntity
}

// Filter keeps the entities allowed by sel in a single pass, preserving
// source order and original positions.
func Filter(entities []native.RawEntity, sel Selection) []Indexed {
	out := make([]Indexed, 0, len(entities))
	for i, entity := range entities {
		if !sel.Allows(entity.Layer) {
			continue
		}
		out = append(out, Indexed{Index: i, Entity: entity})
	}
	return out
}
