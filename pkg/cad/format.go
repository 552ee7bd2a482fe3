package cad

import (
	"github.com/gabriel-vasile/mimetype"
)

// DWGMimeType is the media type reported for DWG payloads.
const DWGMimeType = "image/vnd.dwg"

// DefaultUnits is used when the source declares no insertion units.
const DefaultUnits = "unitless"

// releases maps the six-byte file signature to its release name.
var releases = map[string]string{
	"AC1012": "R13",
	"AC1014": "R14",
	"AC1015": "R2000",
	"AC1018": "R2004",
	"AC1021": "R2007",
	"AC1024": "R2010",
	"AC1027": "R2013",
	"AC1032": "R2018",
}

// insUnits follows the $INSUNITS header codes.
var insUnits = map[int]string{
	0:  "unitless",
	1:  "inches",
	2:  "feet",
	3:  "miles",
	4:  "millimeters",
	5:  "centimeters",
	6:  "meters",
	7:  "kilometers",
	8:  "microinches",
	9:  "mils",
	10: "yards",
	11: "angstroms",
	12: "nanometers",
	13: "microns",
	14: "decimeters",
	15: "decameters",
	16: "hectometers",
	17: "gigameters",
	18: "astronomical units",
	19: "light years",
	20: "parsecs",
}

// LooksLikeDWG reports whether the payload carries a DWG signature. The
// mimetype table misses some releases (AC1027), so known codes are also
// accepted directly.
func LooksLikeDWG(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	if mimetype.Detect(raw).Is(DWGMimeType) {
		return true
	}
	if len(raw) < 6 {
		return false
	}
	_, known := releases[string(raw[:6])]
	return known
}

// SniffVersion reads the release from the file signature. Unknown AC codes
// are returned verbatim.
func SniffVersion(raw []byte) (string, bool) {
	if len(raw) < 6 || raw[0] != 'A' || raw[1] != 'C' {
		return "", false
	}
	code := string(raw[:6])
	if release, ok := releases[code]; ok {
		return release, true
	}
	for _, c := range code[2:] {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return code, true
}

// ReleaseName maps an $ACADVER code such as AC1027 to its release name. Codes
// that are already release names, or unknown, pass through unchanged.
func ReleaseName(code string) string {
	if release, ok := releases[code]; ok {
		return release
	}
	return code
}

// UnitsName maps an $INSUNITS code to a unit name.
func UnitsName(code int) string {
	if name, ok := insUnits[code]; ok {
		return name
	}
	return DefaultUnits
}
