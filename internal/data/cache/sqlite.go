package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists entries so a restart can serve the last project list
// before the first refresh completes.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the database at dbPath.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key       TEXT PRIMARY KEY,
		value     BLOB NOT NULL,
		timestamp INTEGER NOT NULL
	)`)
	return err
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	var (
		value []byte
		ts    int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT value, timestamp FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, time.UnixMilli(ts), nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, at time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, timestamp) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, timestamp = excluded.timestamp`,
		key, value, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
