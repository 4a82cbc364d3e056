// Package cache is the client's local SQLite state: the persisted credential
// record, submissions awaiting a verdict, verdict notifications and code drafts.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite state database.
type DB struct {
	db *sql.DB
}

// Open creates or opens the state database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS watched_submissions (
			submission_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			problem_code TEXT NOT NULL DEFAULT '',
			problem_title TEXT NOT NULL DEFAULT '',
			last_checked INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_watched_last_checked ON watched_submissions(last_checked)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			submission_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			problem_code TEXT NOT NULL DEFAULT '',
			problem_title TEXT NOT NULL DEFAULT '',
			verdict TEXT NOT NULL,
			time_used_ms INTEGER DEFAULT 0,
			memory_used_kb INTEGER DEFAULT 0,
			created_at INTEGER NOT NULL,
			read INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(user_id, read)`,

		`CREATE TABLE IF NOT EXISTS drafts (
			problem_id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			code TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
