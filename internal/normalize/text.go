package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()

	// \P and \X are paragraph breaks, \~ is a non-breaking space.
	mtextBreaks = strings.NewReplacer(`\P`, "\n", `\X`, "\n", `\~`, " ")
	// Codes with an argument terminated by ';' (font, height, colour, ...).
	mtextArgCodes = regexp.MustCompile(`\\[ACcFfHhQTWp][^;\\{}]*;`)
	// Stacked fractions \Snum^den; keep the operands.
	mtextStacks = regexp.MustCompile(`\\S([^;^#/]*)[\^#/]([^;]*);`)
	// Switch codes without arguments: underline, overline, strike-through.
	mtextSwitches = regexp.MustCompile(`\\[LlOoKk]`)
)

// CleanText strips MTEXT inline formatting and any embedded markup, leaving
// plain text suitable for display.
func CleanText(value string) string {
	if value == "" {
		return ""
	}
	out := mtextBreaks.Replace(value)
	out = mtextStacks.ReplaceAllString(out, "$1/$2")
	out = mtextArgCodes.ReplaceAllString(out, "")
	out = mtextSwitches.ReplaceAllString(out, "")
	out = strings.NewReplacer(`\{`, "\x00", `\}`, "\x01").Replace(out)
	out = strings.NewReplacer("{", "", "}", "").Replace(out)
	out = strings.NewReplacer("\x00", "{", "\x01", "}", `\\`, `\`).Replace(out)
	if strings.ContainsAny(out, "<>") {
		out = html.UnescapeString(strictPolicy.Sanitize(out))
	}
	return strings.TrimSpace(out)
}
