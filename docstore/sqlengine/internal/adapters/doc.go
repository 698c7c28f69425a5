// Package adapters provides database adapter implementations for the SQL engine.
//
// This package implements the adapter pattern to support multiple database
// libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent
// functionality through a common DBAdapter interface, allowing the engine to
// work seamlessly with any supported database connection type.
//
// The adapters handle the specifics of each database library while presenting
// a unified interface for query execution, result handling, health checks,
// and connection lifecycle.
package adapters
