// Package match is the fuzzy address-word engine: text normalization, a
// French Soundex variant, edit distance, the address vocabulary and the
// resolver that maps a noisy spoken or typed word onto a known address
// token.
//
// Every function in this package is pure and total. Absence of a match is
// reported as a boolean, never as an error.
package match

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks covers the Combining Diacritical Marks block.
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
})

var ligatures = strings.NewReplacer("œ", "oe", "æ", "ae")

// Normalize canonicalizes s for comparison: accents stripped, lower-cased,
// œ/æ expanded, whitespace collapsed to single spaces and trimmed.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// transform.Chain is stateful, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(combiningMarks))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	lowered := ligatures.Replace(strings.ToLower(stripped))
	return strings.Join(strings.Fields(lowered), " ")
}
