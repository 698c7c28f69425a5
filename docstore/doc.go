// Package docstore provides a document-store client over SQL backends with
// built-in command monitoring.
//
// A Client routes commands (insert, find, delete, drop, ping, hello) over a
// configured endpoint list and emits a started event plus exactly one terminal
// event per command through the event.CommandMonitor callbacks, correlated by
// request id. Endpoint pool invalidation is reported through the
// event.PoolMonitor.
//
// The storage itself is pluggable through the Backend interface; the reference
// implementation lives in the sqlengine subpackage and supports PostgreSQL and
// SQLite through pgx, database/sql, and sqlx.
//
// Common usage pattern:
//
//	opts := docstore.Options{
//		Hosts:          []string{"db1.internal:27830"},
//		Database:       "orders",
//		CommandMonitor: monitor,
//	}
//
//	client, err := docstore.NewClient(opts)
//	if err != nil {
//		// handle error
//	}
//
//	if err := client.Connect(ctx); err != nil {
//		// handle error
//	}
//	defer func() { _ = client.Disconnect(ctx) }()
//
//	coll := client.Database("orders").Collection("invoices")
//	err = coll.InsertOne(ctx, docstore.Document{"invoice_no": "2025-0042"})
//
// The configureFailPoint diagnostic command programs deterministic failures
// for testing; see the clienttest package for the instrumentation kit built
// on top of the monitoring events.
package docstore
