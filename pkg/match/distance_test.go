package match

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"chat", "chat", 0},
		{"chat", "chats", 1},
		{"kitten", "sitting", 3},
		{"", "rue", 3},
		{"rue", "", 3},
		{"victaur", "victor", 2},
		{"victaur", "victoria", 4},
		{"été", "ete", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Levenshtein(tt.b, tt.a); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.b, tt.a, got, tt.want)
		}
	}
}
