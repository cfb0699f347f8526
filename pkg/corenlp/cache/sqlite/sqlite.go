package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/corenlp/pkg/corenlp/cache"
)

// sqliteCache implements cache.Cache using SQLite
type sqliteCache struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// Open opens a SQLite-backed annotation cache with WAL mode enabled.
func Open(ctx context.Context, path string) (cache.Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteCache{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (c *sqliteCache) Close() error {
	return c.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS annotations (
	id TEXT PRIMARY KEY,
	key TEXT UNIQUE NOT NULL,
	payload BLOB NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annotations_created_at ON annotations(created_at);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Get implements cache.Cache.
func (c *sqliteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT payload FROM annotations WHERE key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// Put implements cache.Cache.
func (c *sqliteCache) Put(ctx context.Context, key string, payload []byte) error {
	id := ulid.MustNew(ulid.Now(), c.entropy).String()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := c.db.ExecContext(ctx, `
INSERT INTO annotations (id, key, payload, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at
`, id, key, payload, now)
	return err
}

// Prune implements cache.Cache.
func (c *sqliteCache) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM annotations WHERE created_at < ?",
		before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
