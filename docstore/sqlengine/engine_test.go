package sqlengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docstorekit/docstore-go/docstore/sqlengine"
	"github.com/docstorekit/docstore-go/testutil/config"
	. "github.com/docstorekit/docstore-go/testutil/helper"               //nolint:revive
	. "github.com/docstorekit/docstore-go/testutil/helper/enginewrapper" //nolint:revive
)

const testDatabase = "engine_test"

func Test_InsertDocuments_StoresAllDocuments(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)

	// act
	inserted, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{
		{"title": "first"},
		{"title": "second"},
		{"title": "third"},
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, int64(3), inserted)
	assert.Equal(t, 3, CountDocumentsInTable(t, wrapper))
}

func Test_InsertDocuments_WithoutDocuments_Fails(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// act
	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, GivenUniqueCollectionName(t), nil)

	// assert
	assert.ErrorIs(t, err, sqlengine.ErrBuildingQueryFailed)
}

func Test_FindDocuments_ReturnsDocumentsInInsertionOrder(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{{"title": title}})
		assert.NoError(t, err, "error in arranging test data")
	}

	// act
	docs, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, nil)

	// assert
	assert.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Equal(t, "first", docs[0]["title"])
	assert.Equal(t, "second", docs[1]["title"])
	assert.Equal(t, "third", docs[2]["title"])
}

func Test_FindDocuments_WithFilter_MatchesTopLevelFieldEquality(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)

	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{
		{"status": "open", "title": "keep me"},
		{"status": "done", "title": "skip me"},
		{"status": "open", "title": "keep me too"},
	})
	assert.NoError(t, err, "error in arranging test data")

	// act
	docs, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, sqlengine.Document{"status": "open"})

	// assert
	assert.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "keep me", docs[0]["title"])
	assert.Equal(t, "keep me too", docs[1]["title"])
}

func Test_FindDocuments_WithFilter_MatchesNothingWhenNoDocumentQualifies(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)

	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{
		{"status": "open"},
	})
	assert.NoError(t, err, "error in arranging test data")

	// act
	docs, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, sqlengine.Document{"status": "closed"})

	// assert
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func Test_FindDocuments_IsolatesCollectionsAndDatabases(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)
	otherCollection := GivenUniqueCollectionName(t)

	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{{"owner": "mine"}})
	assert.NoError(t, err, "error in arranging test data")
	_, err = engine.InsertDocuments(ctxWithTimeout, testDatabase, otherCollection, []sqlengine.Document{{"owner": "other collection"}})
	assert.NoError(t, err, "error in arranging test data")
	_, err = engine.InsertDocuments(ctxWithTimeout, "other_database", collection, []sqlengine.Document{{"owner": "other database"}})
	assert.NoError(t, err, "error in arranging test data")

	// act
	docs, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, nil)

	// assert
	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "mine", docs[0]["owner"])
}

func Test_DeleteDocuments_RemovesOnlyMatchingDocuments(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)

	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{
		{"status": "open", "title": "survivor"},
		{"status": "done"},
		{"status": "done"},
	})
	assert.NoError(t, err, "error in arranging test data")

	// act
	deleted, err := engine.DeleteDocuments(ctxWithTimeout, testDatabase, collection, sqlengine.Document{"status": "done"})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, nil)
	assert.NoError(t, err)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "survivor", remaining[0]["title"])
}

func Test_DropCollection_RemovesEveryDocumentOfTheCollection(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)
	otherCollection := GivenUniqueCollectionName(t)

	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{{"n": 1}, {"n": 2}})
	assert.NoError(t, err, "error in arranging test data")
	_, err = engine.InsertDocuments(ctxWithTimeout, testDatabase, otherCollection, []sqlengine.Document{{"n": 3}})
	assert.NoError(t, err, "error in arranging test data")

	// act
	err = engine.DropCollection(ctxWithTimeout, testDatabase, collection)

	// assert
	assert.NoError(t, err)

	dropped, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, nil)
	assert.NoError(t, err)
	assert.Empty(t, dropped)

	kept, err := engine.FindDocuments(ctxWithTimeout, testDatabase, otherCollection, nil)
	assert.NoError(t, err)
	assert.Len(t, kept, 1)
}

func Test_FindDocuments_RoundTripsNestedPayloads(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// arrange
	CleanUp(t, wrapper)
	collection := GivenUniqueCollectionName(t)

	_, err := engine.InsertDocuments(ctxWithTimeout, testDatabase, collection, []sqlengine.Document{
		{"title": "nested", "meta": sqlengine.Document{"lang": "en", "tags": []any{"a", "b"}}},
	})
	assert.NoError(t, err, "error in arranging test data")

	// act
	docs, err := engine.FindDocuments(ctxWithTimeout, testDatabase, collection, nil)

	// assert
	assert.NoError(t, err)
	assert.Len(t, docs, 1)

	meta, ok := docs[0]["meta"].(map[string]any)
	assert.True(t, ok, "nested document should round-trip as a map")
	assert.Equal(t, "en", meta["lang"])
	assert.Equal(t, []any{"a", "b"}, meta["tags"])
}

func Test_Ping_SucceedsOnHealthyDatabase(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	// act
	err := wrapper.GetEngine().Ping(ctxWithTimeout)

	// assert
	assert.NoError(t, err)
}

func Test_FindDocuments_OnMissingTable_Fails(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreateWrapperWithTestConfig(t, sqlengine.WithTableName("missing_documents_table"))
	defer wrapper.Close()
	engine := wrapper.GetEngine()

	// act
	_, err := engine.FindDocuments(ctxWithTimeout, testDatabase, GivenUniqueCollectionName(t), nil)

	// assert
	assert.ErrorIs(t, err, sqlengine.ErrQueryFailed)
}

func Test_NewEngine_WithNilConnection_Fails(t *testing.T) {
	_, pgxErr := sqlengine.NewEngineFromPGXPool(nil)
	assert.ErrorIs(t, pgxErr, sqlengine.ErrNilDatabaseConnection)

	_, sqlErr := sqlengine.NewEngineFromSQLDB(nil, sqlengine.DialectSQLite)
	assert.ErrorIs(t, sqlErr, sqlengine.ErrNilDatabaseConnection)

	_, sqlxErr := sqlengine.NewEngineFromSQLX(nil, sqlengine.DialectPostgres)
	assert.ErrorIs(t, sqlxErr, sqlengine.ErrNilDatabaseConnection)
}

func Test_NewEngine_WithEmptyTableName_Fails(t *testing.T) {
	err := TryCreateEngineWithTableName(t, "")

	assert.ErrorIs(t, err, sqlengine.ErrEmptyTableNameSupplied)
}

func Test_NewEngine_WithUnsupportedDialect_Fails(t *testing.T) {
	db := config.SQLiteMemoryConfig()
	defer func() { _ = db.Close() }()

	_, err := sqlengine.NewEngineFromSQLDB(db, "mysql")

	assert.ErrorIs(t, err, sqlengine.ErrUnsupportedDialect)
}
