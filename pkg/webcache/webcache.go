// Package webcache stores raw JSON responses keyed by request URL, so that
// repeated runs don't burn the upstream request budget on unchanged pages.
package webcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Cache struct {
	sql *sql.DB
}

func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create cache directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS url_cache (
  current_url TEXT PRIMARY KEY,
  dump_time   DATETIME NOT NULL,
  json_data   TEXT NOT NULL
);
    `); err != nil {
		return nil, err
	}
	return &Cache{sql: db}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.sql == nil {
		return nil
	}
	return c.sql.Close()
}

// Lookup returns the cached payload and its fetch time for the URL.
// ok is false when the URL has never been stored.
func (c *Cache) Lookup(url string) (payload string, dumpTime time.Time, ok bool, err error) {
	row := c.sql.QueryRow("SELECT json_data, dump_time FROM url_cache WHERE current_url = ?", url)
	var stamp string
	if err = row.Scan(&payload, &stamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, false, nil
		}
		return "", time.Time{}, false, err
	}
	dumpTime, err = time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("bad dump_time for %s: %w", url, err)
	}
	return payload, dumpTime, true, nil
}

// Store upserts the payload for the URL. One row per URL: a refetch
// overwrites the previous payload instead of growing the table.
func (c *Cache) Store(url, payload string, dumpTime time.Time) error {
	_, err := c.sql.Exec(`
INSERT INTO url_cache(current_url, dump_time, json_data) VALUES(?, ?, ?)
ON CONFLICT(current_url) DO UPDATE SET dump_time = excluded.dump_time, json_data = excluded.json_data
    `, url, dumpTime.UTC().Format(time.RFC3339Nano), payload)
	return err
}
