// Package store provides the session-scoped local store backing the vote
// session: the fingerprint cache and the tier-selection journal. The store
// lives for one session only; the default :memory: database disappears with
// the process, matching the no-persistent-identifier contract.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested key or selection is absent.
var ErrNotFound = stderrors.New("not found in session store")

// Store provides session-local data access
type Store struct {
	db *sql.DB
}

// New creates a new Store. Pass ":memory:" for a purely in-process session.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB creates a Store over an existing database handle (for testing)
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate creates the session tables
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session_values (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tier_selections (
			category_id INTEGER NOT NULL,
			item_id INTEGER NOT NULL,
			tier_index INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (category_id, item_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// GetValue returns the value stored under key, or ErrNotFound.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM session_values WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetValue stores value under key, replacing any previous value.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session_values (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// SaveTierSelection journals a tier choice so the tiering view can restore
// in-session selections when the user revisits a page.
func (s *Store) SaveTierSelection(ctx context.Context, categoryID, itemID, tierIndex int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tier_selections (category_id, item_id, tier_index, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(category_id, item_id) DO UPDATE SET tier_index = excluded.tier_index, updated_at = CURRENT_TIMESTAMP`,
		categoryID, itemID, tierIndex)
	return err
}

// TierSelections returns all journaled tier choices for a category as an
// item id to tier index map.
func (s *Store) TierSelections(ctx context.Context, categoryID int) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, tier_index FROM tier_selections WHERE category_id = ?", categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	selections := make(map[int]int)
	for rows.Next() {
		var itemID, tierIndex int
		if err := rows.Scan(&itemID, &tierIndex); err != nil {
			return nil, err
		}
		selections[itemID] = tierIndex
	}
	return selections, rows.Err()
}
