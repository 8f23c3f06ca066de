package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hazyhaar/tournee-registry/pkg/importer"
	"github.com/hazyhaar/tournee-registry/pkg/match"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr      string          `yaml:"addr"`
	DBPath    string          `yaml:"db_path"`
	WatchFile string          `yaml:"watch_file"`
	Import    importer.Format `yaml:"import"`
	Matching  match.Params    `yaml:"matching"`
	LogLevel  string          `yaml:"log_level"`
	Metrics   bool            `yaml:"metrics"`
	TLS       tlsSettings     `yaml:"tls"`
}

func defaultConfig() config {
	return config{
		Addr:     ":8421",
		DBPath:   "tournees.db",
		Matching: match.DefaultParams(),
		LogLevel: "info",
		Metrics:  true,
	}
}

// loadConfig reads the yaml file at path over the defaults. A missing file
// yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Matching.Validate(); err != nil {
		return cfg, fmt.Errorf("config matching: %w", err)
	}
	return cfg, nil
}

func (c config) level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(cfg config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.level()}))
}

// mustConfig loads the config or exits.
func mustConfig(path string) (config, *slog.Logger) {
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config %s: %v\n", path, err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		logger.Info("no config file, using defaults", "path", path)
	}
	return cfg, logger
}
