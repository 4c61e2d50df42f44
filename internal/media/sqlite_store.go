package media

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists variant metadata across builds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the manifest database at dbPath.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS variants (
		cache_key    TEXT NOT NULL,
		format_order INTEGER NOT NULL,
		format       TEXT NOT NULL,
		width        INTEGER NOT NULL,
		height       INTEGER NOT NULL,
		filename     TEXT NOT NULL,
		output_path  TEXT NOT NULL,
		url          TEXT NOT NULL,
		size         INTEGER NOT NULL,
		created_at   INTEGER NOT NULL,
		PRIMARY KEY (cache_key, format, width)
	);
	CREATE INDEX IF NOT EXISTS idx_variants_key ON variants(cache_key);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the stored metadata for key, if any.
func (s *SQLiteStore) Lookup(ctx context.Context, key string) (Metadata, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT format, width, height, filename, output_path, url, size
		 FROM variants WHERE cache_key = ? ORDER BY format_order, width`,
		key,
	)
	if err != nil {
		return Metadata{}, false, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	md := Metadata{Variants: make(map[Format][]Variant)}
	for rows.Next() {
		var v Variant
		var format string
		if err := rows.Scan(&format, &v.Width, &v.Height, &v.Filename, &v.OutputPath, &v.URL, &v.Size); err != nil {
			return Metadata{}, false, fmt.Errorf("scan variant: %w", err)
		}
		v.Format = Format(format)
		if _, seen := md.Variants[v.Format]; !seen {
			md.Formats = append(md.Formats, v.Format)
		}
		md.Variants[v.Format] = append(md.Variants[v.Format], v)
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, false, fmt.Errorf("iterate variants: %w", err)
	}
	if len(md.Formats) == 0 {
		return Metadata{}, false, nil
	}
	return md, true, nil
}

// Save replaces the stored metadata for key.
func (s *SQLiteStore) Save(ctx context.Context, key string, md Metadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM variants WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}

	now := time.Now().Unix()
	for order, f := range md.Formats {
		for _, v := range md.Variants[f] {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO variants (cache_key, format_order, format, width, height, filename, output_path, url, size, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				key, order, string(v.Format), v.Width, v.Height, v.Filename, v.OutputPath, v.URL, v.Size, now,
			)
			if err != nil {
				return fmt.Errorf("insert variant: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit variants: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
