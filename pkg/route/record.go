// Package route holds the delivery-route records imported from the route
// spreadsheet and their SQLite persistence.
package route

import "strings"

// Record is one spreadsheet row: an address served by a route within a
// distribution zone (BRAS) and a city.
type Record struct {
	ID            int64  `json:"id"`
	Bras          string `json:"bras"`
	Ville         string `json:"ville"`
	Adresse       string `json:"adresse"`
	Numero        string `json:"numero"`
	TypeRecherche string `json:"type_recherche,omitempty"`
}

// Canonical returns r with the text fields lower-cased and every field
// trimmed. Records are stored in this form; accents are kept and only
// stripped when comparing.
func (r Record) Canonical() Record {
	r.Bras = tidy(r.Bras)
	r.Ville = tidy(r.Ville)
	r.Adresse = tidy(r.Adresse)
	r.Numero = strings.TrimSpace(r.Numero)
	r.TypeRecherche = strings.TrimSpace(r.TypeRecherche)
	return r
}

func tidy(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Empty reports whether the record carries no data at all.
func (r Record) Empty() bool {
	return r.Bras == "" && r.Ville == "" && r.Adresse == "" && r.Numero == "" && r.TypeRecherche == ""
}

// Addresses returns the address field of every record, in order.
func Addresses(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Adresse
	}
	return out
}
