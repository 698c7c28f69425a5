// Package sqlengine stores documents in a single SQL table and serves as the
// default backend of the docstore client.
//
// Key features:
//   - PostgreSQL and SQLite dialects behind one query builder
//   - Multiple database adapters: pgx pools, database/sql, and sqlx
//   - Top-level field equality filters compiled to JSON predicates per dialect
//   - Insertion-ordered reads backed by time-ordered document ids
//   - Optional structured logging, metrics, and tracing hooks
//
// Example usage:
//
//	pool, err := pgxpool.New(ctx, dsn)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine, err := sqlengine.NewEngineFromPGXPool(pool, sqlengine.WithTableName("documents"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := engine.EnsureSchema(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	n, err := engine.InsertDocuments(ctx, "app", "orders", []sqlengine.Document{
//		{"status": "open", "total": 42},
//	})
package sqlengine
