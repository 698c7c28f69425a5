package config

import (
	"context"
	"database/sql"
	"log"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// SQLiteMemoryConfig creates a configured in-memory *sql.DB for hermetic tests.
//
// The pool is pinned to a single connection: every connection to ":memory:"
// opens its own fresh database, so a second pooled connection would see none
// of the data written through the first.
func SQLiteMemoryConfig() *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal("Failed to open database connection, error: ", err)
	}

	db.SetMaxOpenConns(1)

	if pingErr := db.PingContext(context.Background()); pingErr != nil {
		log.Fatal("Failed to ping database, error: ", pingErr)
	}

	return db
}
