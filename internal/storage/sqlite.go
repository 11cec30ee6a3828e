package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteStore creates a SQLite-backed store. An empty DSN uses an
// on-disk database in the working directory.
func NewSQLiteStore(dsn string) (Store, error) {
	if dsn == "" {
		dsn = "file:cycler-queue.db?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	return &sqlStore{db: db}, nil
}
