package match

import "github.com/hbollon/go-edlib"

// Levenshtein returns the minimum number of single-rune insertions,
// deletions and substitutions turning a into b. Inputs are compared as
// given; normalize first for accent and case insensitivity.
//
// Cost is O(len(a)*len(b)). Resolver caps its input length, callers using
// Levenshtein directly on untrusted text should do the same.
func Levenshtein(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}
