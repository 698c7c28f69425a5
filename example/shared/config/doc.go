// Package config provides connection and observability configuration helpers
// for the demo tooling: a load generator driving a document store client.
//
// This package contains factory functions for creating database connections
// (pgx.Pool for PostgreSQL, an in-memory SQLite handle for dockerless runs)
// and for wiring OpenTelemetry providers against the demo observability stack.
package config
