package route

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("route record not found")

// Import is a row of the import_log table.
type Import struct {
	Source     string `json:"source"`
	Rows       int    `json:"rows"`
	Skipped    int    `json:"skipped"`
	ImportedAt int64  `json:"imported_at"`
}

// Store persists route records in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// routes and import_log tables exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open route db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS routes (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		bras           TEXT NOT NULL DEFAULT '',
		ville          TEXT NOT NULL DEFAULT '',
		adresse        TEXT NOT NULL DEFAULT '',
		numero         TEXT NOT NULL DEFAULT '',
		type_recherche TEXT NOT NULL DEFAULT '',
		updated_at     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS routes_bras_ville ON routes (bras, ville);
	CREATE TABLE IF NOT EXISTS import_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT NOT NULL,
		row_count   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL DEFAULT 0,
		imported_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create route tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAll replaces every record with records in a single transaction.
// A new spreadsheet import always supersedes the previous one.
func (s *Store) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM routes`); err != nil {
		return fmt.Errorf("clear routes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO routes
		(bras, ville, adresse, numero, type_recherche, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i, r := range records {
		r = r.Canonical()
		if _, err := stmt.ExecContext(ctx, r.Bras, r.Ville, r.Adresse, r.Numero, r.TypeRecherche, now); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Add inserts r (canonicalized) and returns it with its new id.
func (s *Store) Add(ctx context.Context, r Record) (Record, error) {
	r = r.Canonical()
	res, err := s.db.ExecContext(ctx, `INSERT INTO routes
		(bras, ville, adresse, numero, type_recherche, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Bras, r.Ville, r.Adresse, r.Numero, r.TypeRecherche, time.Now().Unix())
	if err != nil {
		return Record{}, fmt.Errorf("add route: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("add route id: %w", err)
	}
	r.ID = id
	return r, nil
}

// Update overwrites the record with the given id.
func (s *Store) Update(ctx context.Context, id int64, r Record) (Record, error) {
	r = r.Canonical()
	res, err := s.db.ExecContext(ctx, `UPDATE routes
		SET bras = ?, ville = ?, adresse = ?, numero = ?, type_recherche = ?, updated_at = ?
		WHERE id = ?`,
		r.Bras, r.Ville, r.Adresse, r.Numero, r.TypeRecherche, time.Now().Unix(), id)
	if err != nil {
		return Record{}, fmt.Errorf("update route %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Record{}, fmt.Errorf("update route %d: %w", id, ErrNotFound)
	}
	r.ID = id
	return r, nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete route %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete route %d: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	var r Record
	err := s.db.QueryRowContext(ctx, `SELECT id, bras, ville, adresse, numero, type_recherche
		FROM routes WHERE id = ?`, id).
		Scan(&r.ID, &r.Bras, &r.Ville, &r.Adresse, &r.Numero, &r.TypeRecherche)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get route %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get route %d: %w", id, err)
	}
	return r, nil
}

// List returns every record ordered by id, i.e. spreadsheet order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, bras, ville, adresse, numero, type_recherche
		FROM routes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Bras, &r.Ville, &r.Adresse, &r.Numero, &r.TypeRecherche); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM routes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count routes: %w", err)
	}
	return n, nil
}

// LogImport records a completed import.
func (s *Store) LogImport(ctx context.Context, source string, rows, skipped int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_log (source, row_count, skipped, imported_at) VALUES (?, ?, ?, ?)`,
		source, rows, skipped, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("log import %s: %w", source, err)
	}
	return nil
}

// LastImport returns the most recent import, or false when nothing was
// ever imported.
func (s *Store) LastImport(ctx context.Context) (Import, bool, error) {
	var imp Import
	err := s.db.QueryRowContext(ctx, `SELECT source, row_count, skipped, imported_at
		FROM import_log ORDER BY id DESC LIMIT 1`).
		Scan(&imp.Source, &imp.Rows, &imp.Skipped, &imp.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, false, nil
	}
	if err != nil {
		return Import{}, false, fmt.Errorf("last import: %w", err)
	}
	return imp, true, nil
}
