package match

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

// Params are the tunable constants of the scoring policy. The defaults
// reproduce the behaviour the field tool was calibrated with.
type Params struct {
	// ShortWordLen: inputs of at most this many runes are only accepted
	// verbatim, never fuzzy-matched.
	ShortWordLen int `yaml:"short_word_len" json:"short_word_len"`
	// PhoneticPenalty is added when the Soundex codes differ.
	PhoneticPenalty float64 `yaml:"phonetic_penalty" json:"phonetic_penalty"`
	// FrequencyWeight scales ln(1+frequency), subtracted from the score.
	FrequencyWeight float64 `yaml:"frequency_weight" json:"frequency_weight"`
	// MinThreshold is the floor of the acceptance threshold.
	MinThreshold float64 `yaml:"min_threshold" json:"min_threshold"`
	// LengthFactor scales the input length into the acceptance threshold.
	LengthFactor float64 `yaml:"length_factor" json:"length_factor"`
	// MaxInputLen rejects longer inputs outright (0 disables the cap).
	MaxInputLen int `yaml:"max_input_len" json:"max_input_len"`
}

// DefaultParams returns the calibrated scoring constants.
func DefaultParams() Params {
	return Params{
		ShortWordLen:    3,
		PhoneticPenalty: 2,
		FrequencyWeight: 0.3,
		MinThreshold:    2.5,
		LengthFactor:    0.6,
		MaxInputLen:     64,
	}
}

// Validate rejects negative constants.
func (p Params) Validate() error {
	switch {
	case p.ShortWordLen < 0:
		return fmt.Errorf("short_word_len must be >= 0, got %d", p.ShortWordLen)
	case p.PhoneticPenalty < 0:
		return fmt.Errorf("phonetic_penalty must be >= 0, got %g", p.PhoneticPenalty)
	case p.FrequencyWeight < 0:
		return fmt.Errorf("frequency_weight must be >= 0, got %g", p.FrequencyWeight)
	case p.MinThreshold < 0:
		return fmt.Errorf("min_threshold must be >= 0, got %g", p.MinThreshold)
	case p.LengthFactor < 0:
		return fmt.Errorf("length_factor must be >= 0, got %g", p.LengthFactor)
	case p.MaxInputLen < 0:
		return fmt.Errorf("max_input_len must be >= 0, got %d", p.MaxInputLen)
	}
	return nil
}

// Candidate is one vocabulary token scored against an input word. Lower
// scores are better.
type Candidate struct {
	Token     string  `json:"token"`
	Distance  int     `json:"distance"`
	Phonetic  bool    `json:"phonetic"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// Resolver picks the vocabulary token closest to a word. It holds no state
// besides its Params and is safe for concurrent use.
type Resolver struct {
	params Params
}

// NewResolver returns a Resolver using p.
func NewResolver(p Params) *Resolver {
	return &Resolver{params: p}
}

// Params returns the scoring constants in use.
func (r *Resolver) Params() Params {
	return r.params
}

// Threshold returns the highest score accepted for word:
// max(MinThreshold, runes(Normalize(word)) * LengthFactor).
func (r *Resolver) Threshold(word string) float64 {
	n := utf8.RuneCountInString(Normalize(word))
	return math.Max(r.params.MinThreshold, float64(n)*r.params.LengthFactor)
}

// Resolve returns the best vocabulary token for word, or false when no
// token is acceptable and the caller should search for word literally.
//
// Words of at most ShortWordLen runes are returned only when present
// verbatim. Longer words are scored against every token as
// distance + phonetic penalty - FrequencyWeight*ln(1+frequency); ties go to
// the lexicographically smallest token.
func (r *Resolver) Resolve(word string, v *Vocabulary) (string, bool) {
	input, ok := r.prepare(word, v)
	if !ok {
		return "", false
	}
	if r.isShort(input) {
		if v.Contains(input) {
			return input, true
		}
		return "", false
	}

	code := SoundexFr(input)
	best, bestScore := "", math.Inf(1)
	for _, tok := range v.tokens {
		if c := r.score(input, code, tok, v); c.Score < bestScore {
			best, bestScore = tok, c.Score
		}
	}
	if best == "" || bestScore > r.Threshold(input) {
		return "", false
	}
	return best, true
}

// Rank scores word against the whole vocabulary and returns the n best
// candidates, best first (n <= 0 returns all). Short words yield at most
// their verbatim match. Rank ignores the acceptance threshold.
func (r *Resolver) Rank(word string, v *Vocabulary, n int) []Candidate {
	input, ok := r.prepare(word, v)
	if !ok {
		return nil
	}
	if r.isShort(input) {
		if !v.Contains(input) {
			return nil
		}
		return []Candidate{{Token: input, Phonetic: true, Frequency: v.Frequency(input)}}
	}

	code := SoundexFr(input)
	out := make([]Candidate, 0, len(v.tokens))
	for _, tok := range v.tokens {
		out = append(out, r.score(input, code, tok, v))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// prepare normalizes word and reports whether scoring can proceed.
func (r *Resolver) prepare(word string, v *Vocabulary) (string, bool) {
	if word == "" || v.Len() == 0 {
		return "", false
	}
	input := Normalize(word)
	if input == "" {
		return "", false
	}
	if limit := r.params.MaxInputLen; limit > 0 && utf8.RuneCountInString(input) > limit {
		return "", false
	}
	return input, true
}

func (r *Resolver) isShort(input string) bool {
	return utf8.RuneCountInString(input) <= r.params.ShortWordLen
}

func (r *Resolver) score(input, inputCode, tok string, v *Vocabulary) Candidate {
	freq := v.Frequency(tok)
	if freq == 0 {
		freq = 1
	}
	c := Candidate{
		Token:     tok,
		Distance:  Levenshtein(input, tok),
		Phonetic:  v.code(tok) == inputCode,
		Frequency: freq,
	}
	penalty := 0.0
	if !c.Phonetic {
		penalty = r.params.PhoneticPenalty
	}
	c.Score = float64(c.Distance) + penalty - r.params.FrequencyWeight*math.Log(1+float64(freq))
	return c
}
