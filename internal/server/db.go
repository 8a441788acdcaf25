package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// BuildDSN assembles the connection string from the deployment's environment
// contract: the database runs as the `postgres` user on host "db" (the
// compose service name) unless POSTGRES_HOST overrides it.
func BuildDSN(host, password, dbname string) string {
	if host == "" {
		host = "db"
	}
	return fmt.Sprintf("postgres://postgres:%s@%s/%s",
		url.QueryEscape(password), host, url.PathEscape(dbname))
}

// OpenDB opens a PostgreSQL connection pool and validates connectivity.
func OpenDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// The board is read-mostly with bursty CI ingest; a small pool is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
