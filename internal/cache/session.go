package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// SessionStore keeps the credential record in the session table.
type SessionStore struct {
	db *DB
}

// Sessions returns the credential record store backed by d.
func (d *DB) Sessions() *SessionStore {
	return &SessionStore{db: d}
}

func (s *SessionStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading session key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SessionStore) Set(key, value string) error {
	_, err := s.db.db.Exec(`INSERT OR REPLACE INTO session (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("writing session key %s: %w", key, err)
	}
	return nil
}

// Remove deletes keys in a single transaction.
func (s *SessionStore) Remove(keys ...string) error {
	tx, err := s.db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.Exec(`DELETE FROM session WHERE key = ?`, k); err != nil {
			return fmt.Errorf("removing session key %s: %w", k, err)
		}
	}
	return tx.Commit()
}
