// Package db opens the optional local history database. The wallet core
// treats it as an opaque record store; schema ownership lives in
// migrations/.
package db

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	// Small pool: one wallet backend, short queries.
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return conn, conn.Ping()
}
