package match

import "strings"

// soundexLen is the length of every non-empty phonetic code.
const soundexLen = 4

// soundexClasses maps 'a'..'z' to a digit class. Zero is the non-coding
// class (vowels, y, h, w).
const soundexClasses = "01230780082455012693070909" // a..z

func soundexClass(c byte) byte {
	return soundexClasses[c-'a']
}

// SoundexFr returns the 4-character French Soundex code of word, or "" when
// word has no letter a-z left after normalization.
//
// Adjacent letters of the same class are coded once, but a non-coding
// letter between them resets the suppression, so "ll" codes once while
// "lal" codes twice, unlike classic Soundex.
func SoundexFr(word string) string {
	cleaned := lettersOnly(Normalize(word))
	if cleaned == "" {
		return ""
	}

	var code strings.Builder
	code.Grow(len(cleaned))
	code.WriteByte(cleaned[0] - 'a' + 'A')

	last := soundexClass(cleaned[0])
	for i := 1; i < len(cleaned); i++ {
		class := soundexClass(cleaned[i])
		switch {
		case class == '0':
			last = '0'
		case class != last:
			code.WriteByte(class)
			last = class
		}
	}

	out := code.String()
	if len(out) < soundexLen {
		out += strings.Repeat("0", soundexLen-len(out))
	}
	return out[:soundexLen]
}

// lettersOnly drops every byte outside a-z.
func lettersOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
