package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hazyhaar/tournee-registry/pkg/match"
	"github.com/hazyhaar/tournee-registry/pkg/route"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Format describes the CSV export of the route spreadsheet.
type Format struct {
	// Delimiter is the field separator. Empty means detect ';' or ','
	// from the header line.
	Delimiter string `yaml:"delimiter"`
	// Encoding is an HTML encoding label (e.g. "windows-1252"). Empty or
	// utf-8 means no transcoding.
	Encoding string `yaml:"encoding"`
}

// Column titles written by WriteCSV, as in the field spreadsheet.
var exportHeader = []string{"BRAS", "Ville", "Adresse", "Numéro de tournée", "Type Recherche"}

type field int

const (
	fieldBras field = iota
	fieldVille
	fieldAdresse
	fieldNumero
	fieldType
)

// headerAliases maps normalized column titles to record fields.
var headerAliases = map[string]field{
	"bras":              fieldBras,
	"ville":             fieldVille,
	"adresse":           fieldAdresse,
	"numero de tournee": fieldNumero,
	"numero":            fieldNumero,
	"numero tournee":    fieldNumero,
	"type recherche":    fieldType,
	"type de recherche": fieldType,
}

// ParseResult is the outcome of reading a spreadsheet export.
type ParseResult struct {
	Records []route.Record
	Skipped int
}

// ReadCSV parses a route spreadsheet exported as CSV. The header row is
// mandatory and must contain an Adresse column. Rows without an address
// are skipped and counted.
func ReadCSV(r io.Reader, f Format) (*ParseResult, error) {
	if enc := f.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delimiter(f.Delimiter, data)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[field]int)
	for i, h := range header {
		if fl, ok := headerAliases[match.Normalize(h)]; ok {
			if _, dup := cols[fl]; !dup {
				cols[fl] = i
			}
		}
	}
	if _, ok := cols[fieldAdresse]; !ok {
		return nil, fmt.Errorf("no Adresse column found in header %v", header)
	}

	res := &ParseResult{}
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		rec := route.Record{
			Bras:          cell(row, cols, fieldBras),
			Ville:         cell(row, cols, fieldVille),
			Adresse:       cell(row, cols, fieldAdresse),
			Numero:        cell(row, cols, fieldNumero),
			TypeRecherche: cell(row, cols, fieldType),
		}.Canonical()
		if rec.Adresse == "" {
			if !rec.Empty() {
				res.Skipped++
			}
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if res.Skipped > 0 {
		slog.Warn("rows without address skipped", "skipped", res.Skipped, "kept", len(res.Records))
	}
	return res, nil
}

// WriteCSV writes records with the spreadsheet's column titles, ';'
// delimited so the file opens directly in a French-locale spreadsheet.
func WriteCSV(w io.Writer, records []route.Record) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Bras, r.Ville, r.Adresse, r.Numero, r.TypeRecherche}); err != nil {
			return fmt.Errorf("write record %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(row []string, cols map[field]int, f field) string {
	i, ok := cols[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// delimiter returns the configured delimiter, or the more frequent of ';'
// and ',' on the first line.
func delimiter(configured string, data []byte) rune {
	if configured != "" {
		return []rune(configured)[0]
	}
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	if bytes.Count(first, []byte(";")) >= bytes.Count(first, []byte(",")) && bytes.Contains(first, []byte(";")) {
		return ';'
	}
	return ','
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
