package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/dvloznov/ledgerchat/internal/quota"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// Store is a SQLite-backed implementation of quota.RecordStore. It gives the
// meter durable device-local storage; the single usage record survives
// restarts.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its parent directory) if needed and
// ensures the schema exists.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements quota.RecordStore.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM usage_records WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read record %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements quota.RecordStore.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, data)
	if err != nil {
		return fmt.Errorf("write record %q: %w", key, err)
	}
	return nil
}

// Clear implements quota.RecordStore.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM usage_records WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("clear record %q: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the RecordStore interface.
var _ quota.RecordStore = (*Store)(nil)
