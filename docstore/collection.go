package docstore

import (
	"context"
	"fmt"
)

// Database is a handle to one database of the deployment.
type Database struct {
	client *Client
	name   string
}

// Database returns a handle to the named database.
func (c *Client) Database(name string) *Database {
	return &Database{client: c, name: name}
}

// Name returns the database name.
func (db *Database) Name() string {
	return db.name
}

// RunCommand executes one command against this database.
func (db *Database) RunCommand(ctx context.Context, cmd Command) (Document, error) {
	return db.client.RunCommand(ctx, db.name, cmd)
}

// Collection returns a handle to the named collection.
func (db *Database) Collection(name string) *Collection {
	return &Collection{db: db, name: name}
}

// Collection is a handle to one collection of a database. Every operation
// funnels through the client's monitored command path.
type Collection struct {
	db   *Database
	name string
}

// Name returns the collection name.
func (col *Collection) Name() string {
	return col.name
}

// InsertOne stores a single document.
func (col *Collection) InsertOne(ctx context.Context, doc Document) error {
	_, err := col.InsertMany(ctx, []Document{doc})
	return err
}

// InsertMany stores the given documents and returns how many were written.
func (col *Collection) InsertMany(ctx context.Context, docs []Document) (int64, error) {
	reply, err := col.db.RunCommand(ctx, Command{
		Name:       CommandInsert,
		Collection: col.name,
		Body:       Document{"documents": docs},
	})
	if err != nil {
		return 0, err
	}

	return replyCount(reply)
}

// Find returns the documents matching the filter, in insertion order.
// A nil filter matches every document of the collection.
func (col *Collection) Find(ctx context.Context, filter Document) ([]Document, error) {
	reply, err := col.db.RunCommand(ctx, Command{
		Name:       CommandFind,
		Collection: col.name,
		Body:       Document{"filter": filter},
	})
	if err != nil {
		return nil, err
	}

	docs, ok := reply["documents"].([]Document)
	if !ok {
		return nil, fmt.Errorf("%w: find reply carries no documents", ErrCommandFailed)
	}

	return docs, nil
}

// DeleteMany removes the documents matching the filter and returns how many
// were removed. A nil filter removes every document of the collection.
func (col *Collection) DeleteMany(ctx context.Context, filter Document) (int64, error) {
	reply, err := col.db.RunCommand(ctx, Command{
		Name:       CommandDelete,
		Collection: col.name,
		Body:       Document{"filter": filter},
	})
	if err != nil {
		return 0, err
	}

	return replyCount(reply)
}

// Drop removes all documents of the collection.
func (col *Collection) Drop(ctx context.Context) error {
	_, err := col.db.RunCommand(ctx, Command{
		Name:       CommandDrop,
		Collection: col.name,
	})

	return err
}

func replyCount(reply Document) (int64, error) {
	count, ok := reply["n"].(int64)
	if !ok {
		return 0, fmt.Errorf("%w: reply carries no count", ErrCommandFailed)
	}

	return count, nil
}
