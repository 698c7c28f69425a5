package helper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/docstorekit/docstore-go/clienttest"
	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/sqlengine"
	"github.com/docstorekit/docstore-go/testutil/config"
)

// TestDatabaseName is the database name hermetic tests run against.
const TestDatabaseName = "harness_test"

// GivenUniqueCollectionName returns a collection name no other test uses.
func GivenUniqueCollectionName(t testing.TB) string {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return "coll_" + id.String()
}

// GivenSQLiteBackend builds a ready in-memory engine with its schema ensured.
func GivenSQLiteBackend(t testing.TB) *sqlengine.Engine {
	engine, _ := GivenSQLiteBackendWithDB(t)
	return engine
}

// GivenSQLiteBackendWithDB builds a ready in-memory engine and also exposes
// the raw database handle, so tests can break the backend underneath a
// connected client.
func GivenSQLiteBackendWithDB(t testing.TB) (*sqlengine.Engine, *sql.DB) {
	db := config.SQLiteMemoryConfig()

	engine, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectSQLite)
	assert.NoError(t, err, "error in arranging test data")

	err = engine.EnsureSchema(context.Background())
	assert.NoError(t, err, "error in arranging test data")

	t.Cleanup(func() {
		_ = engine.Close()
	})

	return engine, db
}

// BaseTestOptions assembles client options for hermetic tests: a fresh
// in-memory backend behind two logical endpoints of a sharded deployment,
// with a heartbeat interval long enough to never tick during a test.
func BaseTestOptions(t testing.TB) docstore.Options {
	return docstore.Options{
		Hosts:             []string{"localhost:27830", "localhost:27831"},
		Database:          TestDatabaseName,
		Topology:          docstore.TopologySharded,
		HeartbeatInterval: time.Hour,
		Backend:           GivenSQLiteBackend(t),
	}
}

// GivenConnectedEventClient connects an instrumented client over a fresh
// hermetic backend and disconnects it when the test finishes.
func GivenConnectedEventClient(t testing.TB, ctx context.Context) *clienttest.EventClient {
	opts := BaseTestOptions(t)

	ec, err := clienttest.NewEventClientWithOptions(ctx, &opts)
	assert.NoError(t, err, "error in arranging test data")

	t.Cleanup(func() {
		_ = ec.Disconnect(context.Background())
	})

	return ec
}

// GivenInsertedDocuments inserts documents through the monitored command path
// and returns how many were written.
func GivenInsertedDocuments(
	t testing.TB,
	ctx context.Context,
	ec *clienttest.EventClient,
	collection string,
	docs []docstore.Document,
) int64 {

	inserted, err := ec.Database(TestDatabaseName).Collection(collection).InsertMany(ctx, docs)
	assert.NoError(t, err, "error in arranging test data")

	return inserted
}

// GivenFailPointArmed programs the client's fail point registry through the
// reserved diagnostic command.
func GivenFailPointArmed(
	t testing.TB,
	ctx context.Context,
	ec *clienttest.EventClient,
	times int,
	failCommands []string,
	errorMessage string,
	closeConnection bool,
) {

	body := docstore.Document{
		"mode": docstore.Document{"times": times},
		"data": docstore.Document{
			"failCommands":    toAnySlice(failCommands),
			"errorMessage":    errorMessage,
			"closeConnection": closeConnection,
		},
	}

	_, err := ec.RunCommand(ctx, "", docstore.Command{Name: docstore.CommandConfigureFailPoint, Body: body})
	assert.NoError(t, err, "error in arranging test data")
}

func toAnySlice(values []string) []any {
	converted := make([]any, 0, len(values))

	for _, value := range values {
		converted = append(converted, value)
	}

	return converted
}
