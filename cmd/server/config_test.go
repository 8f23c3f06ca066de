package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfig_OverridesPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `addr: ":9000"
watch_file: /data/tournees.csv
import:
  delimiter: ";"
  encoding: windows-1252
matching:
  min_threshold: 3
log_level: debug
metrics: false
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.DBPath != "tournees.db" || cfg.WatchFile != "/data/tournees.csv" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Import.Delimiter != ";" || cfg.Import.Encoding != "windows-1252" {
		t.Errorf("import = %+v", cfg.Import)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Matching.MinThreshold != 3 || cfg.Matching.LengthFactor != 0.6 || cfg.Matching.ShortWordLen != 3 {
		t.Errorf("matching = %+v", cfg.Matching)
	}
	if cfg.Metrics || cfg.level() != slog.LevelDebug {
		t.Errorf("metrics=%v level=%v", cfg.Metrics, cfg.level())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, data string
	}{
		{"bad yaml", "addr: [\n"},
		{"negative param", "matching:\n  phonetic_penalty: -1\n"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := loadConfig(path); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
