package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

// NewDBConnection opens the pool and proves it with a ping.
func NewDBConnection(connString string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// Pool settings. Small on purpose: the batch worker holds connections
	// for long stretches while it polls upstream.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}
