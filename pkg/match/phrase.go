package match

import "strings"

// stopWords are French articles, prepositions and generic road-type nouns,
// already normalized. They never carry the distinctive part of a street
// name.
var stopWords = map[string]struct{}{
	"la": {}, "le": {}, "les": {}, "des": {}, "de": {}, "du": {}, "d": {}, "l": {},
	"au": {}, "aux": {}, "a": {},
	"dans": {}, "sur": {}, "sous": {}, "chez": {}, "pour": {},
	"rue": {}, "avenue": {}, "boulevard": {}, "bd": {}, "impasse": {},
	"chemin": {}, "place": {}, "allee": {}, "route": {}, "quai": {},
}

// IsStopWord reports whether word, once normalized, is a filler or
// road-type word.
func IsStopWord(word string) bool {
	_, ok := stopWords[Normalize(word)]
	return ok
}

// ExtractKeyword returns the search key of a spoken or typed phrase: the
// last token that is not a stop word. When every token is a stop word the
// last raw token is returned, and "" when the phrase has no token at all.
func ExtractKeyword(phrase string) string {
	tokens := strings.Fields(Normalize(phrase))
	if len(tokens) == 0 {
		return ""
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if _, stop := stopWords[tokens[i]]; !stop {
			return tokens[i]
		}
	}
	return tokens[len(tokens)-1]
}
