// Package storage persists finished comparisons to SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	_ "modernc.org/sqlite"
)

// DB is a SQLite-backed comparison repository
type DB struct {
	sql *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the comparison database at path
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS comparisons (
  id                INTEGER PRIMARY KEY,
  url               TEXT NOT NULL,
  prebuilt_name     TEXT NOT NULL,
  prebuilt_price    REAL NOT NULL,
  total_parts_price REAL NOT NULL,
  price_difference  REAL NOT NULL,
  parts             TEXT NOT NULL,
  created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comparisons_created ON comparisons(created_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db, now: time.Now}, nil
}

// Close closes the underlying database
func (d *DB) Close() error {
	return d.sql.Close()
}

// SaveComparison stores a finished comparison. Parts are kept as a JSON array.
func (d *DB) SaveComparison(ctx context.Context, url string, result *domain.ComparisonResult) error {
	parts, err := json.Marshal(result.Parts)
	if err != nil {
		return fmt.Errorf("encode parts: %w", err)
	}
	_, err = d.sql.ExecContext(ctx, `
		INSERT INTO comparisons (url, prebuilt_name, prebuilt_price, total_parts_price, price_difference, parts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, url, result.PrebuiltName, result.PrebuiltPrice, result.TotalPartsPrice, result.PriceDifference, string(parts), d.now().Unix())
	return err
}

// RecentComparisons returns up to limit comparisons, newest first
func (d *DB) RecentComparisons(ctx context.Context, limit int) ([]domain.StoredComparison, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, url, prebuilt_name, prebuilt_price, total_parts_price, price_difference, parts, created_at
		FROM comparisons
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.StoredComparison, 0)
	for rows.Next() {
		var c domain.StoredComparison
		var created int64
		if err := rows.Scan(&c.ID, &c.URL, &c.PrebuiltName, &c.PrebuiltPrice, &c.TotalPartsPrice, &c.PriceDifference, &c.Parts, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
