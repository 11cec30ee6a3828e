package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgresStore creates a PostgreSQL-backed store using the pgx
// driver. The DSN is a standard postgres:// URL.
func NewPostgresStore(dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres storage requires a DSN")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &sqlStore{db: db}, nil
}
