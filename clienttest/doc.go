// Package clienttest instruments a docstore client for tests: it buffers the
// command and pool lifecycle events the client emits and offers the
// correlation and filtering queries test assertions depend on.
//
// The harness subscribes through the client's monitor callbacks, appends
// every event to a shared ordered queue in arrival order, and lets tests pull
// matched pairs out again. It does not validate protocol correctness; it
// makes emitted events observable and matchable.
//
// Key types:
//   - EventQueue: shared, ordered event buffer with fail-fast corruption
//     semantics
//   - EventHandler: the subscription sink wired into a client's monitors
//   - EventClient: a connected client plus the queue handles and queries
//
// Common usage pattern:
//
//	ec, err := clienttest.NewEventClient(ctx)
//	if err != nil {
//		t.Fatal(err)
//	}
//	defer ec.Disconnect(ctx)
//
//	coll := ec.Database("app").Collection("orders")
//	_ = coll.InsertOne(ctx, docstore.Document{"status": "open"})
//
//	started, succeeded := ec.GetSuccessfulCommandExecution("insert")
//	// assert on started.Command, succeeded.Reply, ...
//
// Correlation is destructive (consumed events leave the queue); the filtering
// queries are not. All fatal harness conditions panic with a wrapped sentinel
// from this package, never silently continue.
package clienttest
