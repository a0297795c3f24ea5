package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"exambank/internal/domain"

	"github.com/jmoiron/sqlx"
)

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteCacheAdapter implements domain.Cache on a local sqlite database. It is
// the fallback classification cache for environments without redis; every Set
// is a committed upsert, so durability holds before the call returns.
type SQLiteCacheAdapter struct {
	db *sqlx.DB
}

// NewSQLiteCacheAdapter creates the adapter and ensures the cache table
// exists.
func NewSQLiteCacheAdapter(db *sqlx.DB) (domain.Cache, error) {
	if _, err := db.Exec(createCacheTable); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &SQLiteCacheAdapter{db: db}, nil
}

// Get retrieves an item, translating sql.ErrNoRows to domain.ErrCacheMiss.
func (a *SQLiteCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := a.db.GetContext(ctx, &value, `SELECT value FROM cache_entries WHERE key = ?`, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, nil
}

// Set upserts an entry. The expiration parameter is accepted for interface
// compatibility; entries in this backend are never evicted automatically.
func (a *SQLiteCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes an entry. Deleting a missing key is not an error.
func (a *SQLiteCacheAdapter) Delete(ctx context.Context, key string) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (a *SQLiteCacheAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

var _ domain.Cache = (*SQLiteCacheAdapter)(nil)
