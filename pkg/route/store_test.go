package route

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count on empty db: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestReplaceAll_CanonicalizesAndReplaces(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	first := []Record{
		{Bras: "NORD", Ville: "Lille", Adresse: "12 Rue   Victor Hugo", Numero: " 101 "},
		{Bras: "Nord", Ville: "Roubaix", Adresse: "Allée des Érables", Numero: "102", TypeRecherche: " 1 "},
	}
	if err := s.ReplaceAll(ctx, first); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List = %d records, want 2", len(got))
	}
	want := Record{ID: got[0].ID, Bras: "nord", Ville: "lille", Adresse: "12 rue victor hugo", Numero: "101"}
	if got[0] != want {
		t.Errorf("record 0 = %+v, want %+v", got[0], want)
	}
	if got[1].Adresse != "allée des érables" || got[1].TypeRecherche != "1" {
		t.Errorf("record 1 = %+v", got[1])
	}

	if err := s.ReplaceAll(ctx, []Record{{Bras: "sud", Adresse: "quai foch", Numero: "7"}}); err != nil {
		t.Fatalf("ReplaceAll (second): %v", err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count after replace = %d, want 1", n)
	}
}

func TestAddUpdateDelete(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	added, err := s.Add(ctx, Record{Bras: "Est", Ville: "Metz", Adresse: "Rue Serpenoise", Numero: "55"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.ID == 0 || added.Adresse != "rue serpenoise" {
		t.Fatalf("Add returned %+v", added)
	}

	updated, err := s.Update(ctx, added.ID, Record{Bras: "est", Ville: "metz", Adresse: "Place Saint-Louis", Numero: "56"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := s.Get(ctx, added.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != updated || got.Adresse != "place saint-louis" {
		t.Errorf("Get = %+v, want %+v", got, updated)
	}

	if err := s.Delete(ctx, added.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, added.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestNotFound(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if _, err := s.Update(ctx, 42, Record{Adresse: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update unknown: err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete unknown: err = %v, want ErrNotFound", err)
	}
}

func TestImportLog(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	if _, ok, err := s.LastImport(ctx); err != nil || ok {
		t.Fatalf("LastImport on empty log = %v, %v", ok, err)
	}
	if err := s.LogImport(ctx, "tournees.csv", 10, 1); err != nil {
		t.Fatalf("LogImport: %v", err)
	}
	if err := s.LogImport(ctx, "tournees-v2.csv", 12, 0); err != nil {
		t.Fatalf("LogImport: %v", err)
	}
	imp, ok, err := s.LastImport(ctx)
	if err != nil || !ok {
		t.Fatalf("LastImport = %v, %v", ok, err)
	}
	if imp.Source != "tournees-v2.csv" || imp.Rows != 12 || imp.Skipped != 0 {
		t.Errorf("LastImport = %+v", imp)
	}
}

func TestRecordCanonicalAndEmpty(t *testing.T) {
	r := Record{Bras: " SUD ", Ville: "Nîmes", Adresse: "Bd  Gambetta", Numero: " 3 "}.Canonical()
	want := Record{Bras: "sud", Ville: "nîmes", Adresse: "bd gambetta", Numero: "3"}
	if r != want {
		t.Errorf("Canonical = %+v, want %+v", r, want)
	}
	if !(Record{}).Empty() {
		t.Error("zero Record should be Empty")
	}
	if r.Empty() {
		t.Error("populated Record should not be Empty")
	}
}
