package dbcache

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLite opens or creates the cache at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection keeps ":memory:" and file databases consistent
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the blob stored under key.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	var blob []byte
	err := s.db.QueryRow("SELECT blob FROM databases WHERE key = ?", key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying database %s: %w", key, err)
	}
	return blob, true, nil
}

// Put stores blob under key.
func (s *SQLiteStore) Put(key, info string, blob []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO databases (key, info, blob, created_at)
		VALUES (?, ?, ?, ?)
	`, key, info, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("inserting database: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStore) Delete(key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.Exec("DELETE FROM databases WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting database: %w", err)
	}
	return nil
}

// Entry describes a cached database without its blob.
type Entry struct {
	Key       string
	Info      string
	Size      int
	CreatedAt time.Time
}

// List returns the cached entries, newest first.
func (s *SQLiteStore) List() ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.Query(`
		SELECT key, info, length(blob), created_at FROM databases
		ORDER BY created_at DESC, key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying databases: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.Key, &e.Info, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("scanning database row: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
