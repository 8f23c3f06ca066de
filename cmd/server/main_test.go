package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleCSV = "BRAS;Ville;Adresse;Numéro de tournée\n" +
	"nord;lille;12 rue victor hugo;101\n" +
	"sud;nimes;avenue victoria;201\n"

func testConfig(t *testing.T) config {
	t.Helper()
	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.DBPath = filepath.Join(dir, "tournees.db")
	cfg.WatchFile = filepath.Join(dir, "tournees.csv")
	cfg.Metrics = false
	if err := os.WriteFile(cfg.WatchFile, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApp_Reimport(t *testing.T) {
	cfg := testConfig(t)
	a, err := openApp(cfg, discardLogger())
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	defer a.store.Close()
	ctx := context.Background()

	a.reimport(ctx, cfg.WatchFile)
	if st := a.registry.Stats(); st.Records != 2 {
		t.Fatalf("records = %d, want 2", st.Records)
	}
	if got, ok := a.registry.Resolve("victaur"); !ok || got != "victor" {
		t.Errorf("Resolve(victaur) = %q, %v", got, ok)
	}

	// A broken spreadsheet keeps the previous routes in service.
	if err := os.WriteFile(cfg.WatchFile, []byte("Ville\nlille\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.reimport(ctx, cfg.WatchFile)
	if st := a.registry.Stats(); st.Records != 2 {
		t.Errorf("records after failed import = %d, want 2", st.Records)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	tests := []struct {
		name    string
		metrics bool
	}{
		{"plain", false},
		{"default metrics", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Metrics = tt.metrics
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() { done <- serve(ctx, cfg, discardLogger()) }()

			select {
			case err := <-done:
				cancel()
				t.Fatalf("serve returned before cancel: %v", err)
			case <-time.After(200 * time.Millisecond):
			}
			cancel()

			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("serve: %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("serve did not return after cancel")
			}
		})
	}
}
