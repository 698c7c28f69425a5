// Package enginewrapper abstracts over the database adapters the engine can
// run on, so the same test suite exercises pgx pools, database/sql, sqlx, and
// in-memory SQLite, selected through the ADAPTER_TYPE environment variable.
package enginewrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/docstorekit/docstore-go/docstore/sqlengine"
	"github.com/docstorekit/docstore-go/testutil/config"
)

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
	typeSQLite  = "sqlite"
)

// Wrapper interface to abstract over different adapter types
type Wrapper interface {
	GetEngine() *sqlengine.Engine
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool   *pgxpool.Pool
	engine *sqlengine.Engine
}

func (w *PGXPoolWrapper) GetEngine() *sqlengine.Engine {
	return w.engine
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db     *sql.DB
	engine *sqlengine.Engine
}

func (w *SQLDBWrapper) GetEngine() *sqlengine.Engine {
	return w.engine
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db     *sqlx.DB
	engine *sqlengine.Engine
}

func (w *SQLXWrapper) GetEngine() *sqlengine.Engine {
	return w.engine
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLiteWrapper wraps in-memory SQLite-based testing
type SQLiteWrapper struct {
	db     *sql.DB
	engine *sqlengine.Engine
}

func (w *SQLiteWrapper) GetEngine() *sqlengine.Engine {
	return w.engine
}

func (w *SQLiteWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the environment
// variable. The default documents table is created up front on the shared connection,
// so engines pointing at a different table still fail the way their tests expect.
func CreateWrapperWithTestConfig(t testing.TB, options ...sqlengine.Option) Wrapper {
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch adapterTypeFromEnv {
	case typeSQLite, "":
		db := config.SQLiteMemoryConfig()

		bootstrap, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectSQLite)
		assert.NoError(t, err, "error creating engine in test setup")
		assert.NoError(t, bootstrap.EnsureSchema(context.Background()), "error ensuring schema in test setup")

		engine, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectSQLite, options...)
		assert.NoError(t, err, "error creating engine")

		return &SQLiteWrapper{db: db, engine: engine}

	case typePGXPool:
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		bootstrap, err := sqlengine.NewEngineFromPGXPool(connPool)
		assert.NoError(t, err, "error creating engine in test setup")
		assert.NoError(t, bootstrap.EnsureSchema(context.Background()), "error ensuring schema in test setup")

		engine, err := sqlengine.NewEngineFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating engine")

		return &PGXPoolWrapper{pool: connPool, engine: engine}

	case typeSQLDB:
		db := config.PostgresSQLDBConfig()

		bootstrap, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectPostgres)
		assert.NoError(t, err, "error creating engine in test setup")
		assert.NoError(t, bootstrap.EnsureSchema(context.Background()), "error ensuring schema in test setup")

		engine, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectPostgres, options...)
		assert.NoError(t, err, "error creating engine")

		return &SQLDBWrapper{db: db, engine: engine}

	case typeSQLXDB:
		db := config.PostgresSQLXConfig()

		bootstrap, err := sqlengine.NewEngineFromSQLX(db, sqlengine.DialectPostgres)
		assert.NoError(t, err, "error creating engine in test setup")
		assert.NoError(t, bootstrap.EnsureSchema(context.Background()), "error ensuring schema in test setup")

		engine, err := sqlengine.NewEngineFromSQLX(db, sqlengine.DialectPostgres, options...)
		assert.NoError(t, err, "error creating engine")

		return &SQLXWrapper{db: db, engine: engine}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}

// TryCreateEngineWithTableName tries to create an engine with the given table name
// and returns the error (for testing error cases).
func TryCreateEngineWithTableName(t testing.TB, tableName string) error {
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	options := []sqlengine.Option{sqlengine.WithTableName(tableName)}

	switch adapterTypeFromEnv {
	case typeSQLite, "":
		db := config.SQLiteMemoryConfig()
		defer func(db *sql.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectSQLite, options...)
		return err

	case typePGXPool:
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")
		defer connPool.Close()

		_, err = sqlengine.NewEngineFromPGXPool(connPool, options...)
		return err

	case typeSQLDB:
		db := config.PostgresSQLDBConfig()
		defer func(db *sql.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := sqlengine.NewEngineFromSQLDB(db, sqlengine.DialectPostgres, options...)
		return err

	case typeSQLXDB:
		db := config.PostgresSQLXConfig()
		defer func(db *sqlx.DB) {
			_ = db.Close() // makes no sense to handle this
		}(db)

		_, err := sqlengine.NewEngineFromSQLX(db, sqlengine.DialectPostgres, options...)
		return err

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}

// CleanUp cleans up the documents table for the given wrapper
func CleanUp(t testing.TB, wrapper Wrapper) {
	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err := w.pool.Exec(context.Background(), "TRUNCATE TABLE documents")
		assert.NoError(t, err, "error cleaning up the documents table")

	case *SQLDBWrapper:
		_, err := w.db.Exec("TRUNCATE TABLE documents")
		assert.NoError(t, err, "error cleaning up the documents table")

	case *SQLXWrapper:
		_, err := w.db.Exec("TRUNCATE TABLE documents")
		assert.NoError(t, err, "error cleaning up the documents table")

	case *SQLiteWrapper:
		_, err := w.db.Exec("DELETE FROM documents")
		assert.NoError(t, err, "error cleaning up the documents table")

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}
}

// CountDocumentsInTable counts all rows in the documents table for the given wrapper.
func CountDocumentsInTable(t testing.TB, wrapper Wrapper) int {
	var cnt int
	var err error

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		row := w.pool.QueryRow(context.Background(), `SELECT count(*) FROM documents`)
		err = row.Scan(&cnt)

	case *SQLDBWrapper:
		row := w.db.QueryRow(`SELECT count(*) FROM documents`)
		err = row.Scan(&cnt)

	case *SQLXWrapper:
		row := w.db.QueryRow(`SELECT count(*) FROM documents`)
		err = row.Scan(&cnt)

	case *SQLiteWrapper:
		row := w.db.QueryRow(`SELECT count(*) FROM documents`)
		err = row.Scan(&cnt)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}

	assert.NoError(t, err, "error in arranging test data")
	return cnt
}
