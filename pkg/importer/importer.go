// Package importer loads the route spreadsheet (CSV export) into the route
// store, exports it back, and watches the spreadsheet file for changes.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/tournee-registry/pkg/route"
)

// Importer replaces the content of a route.Store with a parsed spreadsheet.
type Importer struct {
	store  *route.Store
	format Format
	logger *slog.Logger
}

// ErrInvalidSheet marks an import rejected because of its content rather
// than a storage or network failure.
var ErrInvalidSheet = errors.New("invalid route spreadsheet")

// New returns an Importer writing into store.
func New(store *route.Store, format Format, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, format: format, logger: logger}
}

// ImportReader parses r and replaces every stored record. source is only
// used for the import log.
func (im *Importer) ImportReader(ctx context.Context, source string, r io.Reader) (*ParseResult, error) {
	res, err := ReadCSV(r, im.format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %w", source, ErrInvalidSheet, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("parse %s: %w: no route record found", source, ErrInvalidSheet)
	}
	if err := im.store.ReplaceAll(ctx, res.Records); err != nil {
		return nil, err
	}
	if err := im.store.LogImport(ctx, source, len(res.Records), res.Skipped); err != nil {
		return nil, err
	}
	im.logger.Info("routes imported", "source", source, "rows", len(res.Records), "skipped", res.Skipped)
	return res, nil
}

// ImportFile imports the CSV file at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return im.ImportReader(ctx, filepath.Base(path), f)
}

// ImportURL downloads the CSV at url and imports it.
func (im *Importer) ImportURL(ctx context.Context, url string) (*ParseResult, error) {
	dir, err := os.MkdirTemp("", "tournee-import-")
	if err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dest := filepath.Join(dir, "routes.csv")
	im.logger.Info("downloading routes", "url", url)
	if err := downloadFile(ctx, url, dest); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, fmt.Errorf("open download: %w", err)
	}
	defer f.Close()
	return im.ImportReader(ctx, url, f)
}

// Export writes every stored record as CSV.
func (im *Importer) Export(ctx context.Context, w io.Writer) error {
	records, err := im.store.List(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, records)
}
