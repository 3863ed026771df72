// Package db opens and migrates the SQLite database holding the durable
// event log, the audit trail, users, revoked tokens, and item photos.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// pragmas applied on open. The events and audits tables are append-only and
// read far more often than written, so WAL keeps replay and analytics reads
// unblocked while operations append; NORMAL synchronous is durable enough
// under WAL.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Open opens the database at path and applies the pragmas. Run Migrate
// before first use.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	return conn, nil
}
