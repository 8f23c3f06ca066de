package importer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/tournee-registry/pkg/route"
)

const sampleCSV = "BRAS;Ville;Adresse;Numéro de tournée\n" +
	"nord;lille;12 rue victor hugo;101\n" +
	"nord;lille;5 rue victor;102\n" +
	"sud;nimes;avenue victoria;201\n"

func tempImporter(t *testing.T) (*Importer, *route.Store) {
	t.Helper()
	store, err := route.Open(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("route.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, Format{}, nil), store
}

func TestImportFile(t *testing.T) {
	im, store := tempImporter(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tournees.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := im.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if len(res.Records) != 3 {
		t.Errorf("records = %d, want 3", len(res.Records))
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("stored = %d, want 3", n)
	}
	imp, ok, err := store.LastImport(ctx)
	if err != nil || !ok || imp.Source != "tournees.csv" || imp.Rows != 3 {
		t.Errorf("LastImport = %+v, %v, %v", imp, ok, err)
	}
}

func TestImportReader_NoRecordsKeepsStore(t *testing.T) {
	im, store := tempImporter(t)
	ctx := context.Background()

	if _, err := im.ImportReader(ctx, "first", strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportReader: %v", err)
	}
	_, err := im.ImportReader(ctx, "empty", strings.NewReader("Adresse\n"))
	if !errors.Is(err, ErrInvalidSheet) {
		t.Fatalf("err = %v, want ErrInvalidSheet", err)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("stored = %d, want the previous 3", n)
	}
}

func TestImportURL(t *testing.T) {
	im, store := tempImporter(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer ts.Close()

	if _, err := im.ImportURL(context.Background(), ts.URL); err != nil {
		t.Fatalf("ImportURL: %v", err)
	}
	if n, _ := store.Count(context.Background()); n != 3 {
		t.Errorf("stored = %d, want 3", n)
	}
}

func TestExport(t *testing.T) {
	im, _ := tempImporter(t)
	ctx := context.Background()
	if _, err := im.ImportReader(ctx, "sample", strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportReader: %v", err)
	}

	var buf bytes.Buffer
	if err := im.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("export lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	if lines[3] != "sud;nimes;avenue victoria;201;" {
		t.Errorf("last line = %q", lines[3])
	}
}

func TestExport_KeepsAccents(t *testing.T) {
	im, _ := tempImporter(t)
	ctx := context.Background()
	in := "BRAS;Ville;Adresse;Numéro de tournée\nEst;Nîmes;Allée  des Tilleuls;9\n"
	if _, err := im.ImportReader(ctx, "accents", strings.NewReader(in)); err != nil {
		t.Fatalf("ImportReader: %v", err)
	}

	var buf bytes.Buffer
	if err := im.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[1] != "est;nîmes;allée des tilleuls;9;" {
		t.Errorf("export = %q", buf.String())
	}
}
