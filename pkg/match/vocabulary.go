package match

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MinTokenLen is the shortest token, in runes, admitted into a Vocabulary.
const MinTokenLen = 3

// Vocabulary is the set of distinct address tokens of a corpus with their
// occurrence counts. It is immutable once built and safe for concurrent
// use; rebuild it whenever the corpus changes.
type Vocabulary struct {
	tokens    []string // sorted
	frequency map[string]int
	codes     map[string]string
}

// BuildVocabulary tokenizes every address (normalized, split on spaces)
// and counts each token of at least MinTokenLen runes. A token repeated
// within one address is counted once per occurrence.
func BuildVocabulary(addresses []string) *Vocabulary {
	v := &Vocabulary{
		frequency: make(map[string]int),
		codes:     make(map[string]string),
	}
	for _, addr := range addresses {
		for _, tok := range strings.Split(Normalize(addr), " ") {
			if utf8.RuneCountInString(tok) < MinTokenLen {
				continue
			}
			if _, seen := v.frequency[tok]; !seen {
				v.tokens = append(v.tokens, tok)
				v.codes[tok] = SoundexFr(tok)
			}
			v.frequency[tok]++
		}
	}
	sort.Strings(v.tokens)
	return v
}

// Len returns the number of distinct tokens. A nil Vocabulary is empty.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.tokens)
}

// Contains reports whether token is in the vocabulary, verbatim.
func (v *Vocabulary) Contains(token string) bool {
	if v == nil {
		return false
	}
	_, ok := v.frequency[token]
	return ok
}

// Frequency returns how many times token occurred in the corpus.
func (v *Vocabulary) Frequency(token string) int {
	if v == nil {
		return 0
	}
	return v.frequency[token]
}

// Tokens returns the distinct tokens in lexicographic order.
func (v *Vocabulary) Tokens() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

func (v *Vocabulary) code(token string) string {
	if c, ok := v.codes[token]; ok {
		return c
	}
	return SoundexFr(token)
}
