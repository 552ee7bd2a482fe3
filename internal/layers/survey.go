package layers

import (
	"sort"
	"strings"

	"github.com/goliatone/go-dwgimport/internal/normalize"
	"github.com/goliatone/go-dwgimport/pkg/cad"
	"github.com/goliatone/go-dwgimport/pkg/native"
)

// TypeKey names the histogram bucket for a raw entity type: the canonical
// kind when supported, otherwise the lower-cased parser type.
func TypeKey(rawType string) string {
	if kind, ok := normalize.KindOf(rawType); ok {
		return string(kind)
	}
	name := strings.ToLower(strings.TrimSpace(rawType))
	if name == "" {
		return "unknown"
	}
	return name
}

// Survey builds one LayerInfo per distinct layer across the whole document,
// sorted by name. Every entity is counted, supported or not. Layers declared
// in the table but never used are listed with a zero count; table rows also
// supply visibility, colour and linetype.
func Survey(entities []native.RawEntity, table []native.RawLayer) []cad.LayerInfo {
	infos := make(map[string]*cad.LayerInfo)
	get := func(name string) *cad.LayerInfo {
		info, ok := infos[name]
		if !ok {
			info = &cad.LayerInfo{
				Name:        name,
				EntityTypes: make(map[string]int),
				IsVisible:   true,
			}
			infos[name] = info
		}
		return info
	}

	for _, row := range table {
		info := get(LayerName(row.Name))
		info.IsVisible = row.Visible()
		if row.Color != nil {
			c := *row.Color
			info.Color = &c
		}
		if row.Linetype != "" {
			info.Linetype = row.Linetype
		}
	}

	for _, entity := range entities {
		info := get(LayerName(entity.Layer))
		info.EntityTypes[TypeKey(entity.Type)]++
		info.EntityCount++
	}

	out := make([]cad.LayerInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
