package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Store is key/value persistence with explicit commit.
//
// Reads return def when the key has never been written. Writes may be
// buffered; only Commit makes them durable.
type Store interface {
	Write(key string, value int) error
	WriteStr(key, value string) error
	Read(key string, def int) (int, error)
	ReadStr(key, def string) (string, error)
	Commit() error
}

// opTimeout bounds every database round trip. Commits run on the broker's
// delivery goroutine and must not stall it.
const opTimeout = 2 * time.Second

type pendingValue struct {
	isStr bool
	num   int
	str   string
}

// SQLiteStore implements Store over the settings table.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[string]pendingValue
}

// NewSQLiteStore returns a store over db. The settings migration must have run.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, pending: make(map[string]pendingValue)}
}

// Write buffers an integer value.
func (s *SQLiteStore) Write(key string, value int) error {
	return s.buffer(key, pendingValue{num: value})
}

// WriteStr buffers a string value.
func (s *SQLiteStore) WriteStr(key, value string) error {
	return s.buffer(key, pendingValue{isStr: true, str: value})
}

func (s *SQLiteStore) buffer(key string, v pendingValue) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	s.pending[key] = v
	s.mu.Unlock()
	return nil
}

// Read returns the integer stored at key. Uncommitted writes are visible.
func (s *SQLiteStore) Read(key string, def int) (int, error) {
	v, found, err := s.lookup(key)
	switch {
	case err != nil:
		return def, err
	case !found:
		return def, nil
	case v.isStr:
		return def, fmt.Errorf("%w: %s", ErrTypeMismatch, key)
	}
	return v.num, nil
}

// ReadStr returns the string stored at key. Uncommitted writes are visible.
func (s *SQLiteStore) ReadStr(key, def string) (string, error) {
	v, found, err := s.lookup(key)
	switch {
	case err != nil:
		return def, err
	case !found:
		return def, nil
	case !v.isStr:
		return def, fmt.Errorf("%w: %s", ErrTypeMismatch, key)
	}
	return v.str, nil
}

// lookup returns the buffered value for key, else the committed one.
func (s *SQLiteStore) lookup(key string) (pendingValue, bool, error) {
	s.mu.Lock()
	v, ok := s.pending[key]
	s.mu.Unlock()
	if ok {
		return v, true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var num sql.NullInt64
	var str sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT int_value, str_value FROM settings WHERE key = ?", key,
	).Scan(&num, &str)
	if errors.Is(err, sql.ErrNoRows) {
		return pendingValue{}, false, nil
	}
	if err != nil {
		return pendingValue{}, false, fmt.Errorf("reading %s: %w", key, err)
	}

	if str.Valid {
		return pendingValue{isStr: true, str: str.String}, true, nil
	}
	return pendingValue{num: int(num.Int64)}, true, nil
}

// Commit applies every buffered write in one transaction. On failure the
// writes stay buffered and the next Commit retries them.
func (s *SQLiteStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting settings commit: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for key, v := range s.pending {
		var num, str any
		if v.isStr {
			str = v.str
		} else {
			num = int64(v.num)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, int_value, str_value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				int_value = excluded.int_value,
				str_value = excluded.str_value,
				updated_at = excluded.updated_at`,
			key, num, str, now,
		); err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}
	clear(s.pending)
	return nil
}

// Pending returns the number of uncommitted writes.
func (s *SQLiteStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
