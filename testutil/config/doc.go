// Package config provides database configuration for docstore testing.
//
// This package contains factory functions for creating database connections
// using the sqlengine's supported adapters (pgx.Pool, sql.DB, sqlx.DB) with
// pre-configured test DSNs, plus an in-memory SQLite configuration for
// hermetic tests that need no running database server.
package config
