package docstore

import (
	"context"
)

// Backend executes commands against the physical storage a deployment runs on.
//
// The client owns routing, monitoring, and fail points; a Backend only has to
// store, query, and delete documents. Implementations must be safe for
// concurrent use.
type Backend interface {
	// EnsureSchema prepares the storage so the remaining operations can run.
	EnsureSchema(ctx context.Context) error
	// InsertDocuments stores the given documents and returns how many were written.
	InsertDocuments(ctx context.Context, database string, collection string, docs []Document) (int64, error)
	// FindDocuments returns the documents matching the filter, in insertion order.
	// A nil or empty filter matches every document of the collection.
	FindDocuments(ctx context.Context, database string, collection string, filter Document) ([]Document, error)
	// DeleteDocuments removes the documents matching the filter and returns how many were removed.
	DeleteDocuments(ctx context.Context, database string, collection string, filter Document) (int64, error)
	// DropCollection removes all documents of the collection.
	DropCollection(ctx context.Context, database string, collection string) error
	// Ping verifies the storage is reachable.
	Ping(ctx context.Context) error
	// Close releases the storage resources.
	Close() error
}

// Resetter is implemented by backends that can discard their idle connections.
// The client invokes it when an endpoint's pool is cleared.
type Resetter interface {
	Reset()
}
