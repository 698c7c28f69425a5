package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/docstorekit/docstore-go/docstore/sqlengine/internal/adapters"
)

// Supported SQL dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

const (
	defaultTableName  = "documents"
	colDocID          = "doc_id"
	colDatabaseName   = "database_name"
	colCollectionName = "collection_name"
	colPayload        = "payload"
	colInsertedAt     = "inserted_at"
)

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableNameSupplied = errors.New("empty documents table name supplied")
var ErrUnsupportedDialect = errors.New("unsupported sql dialect")
var ErrInvalidPayloadJSON = errors.New("document payload json is not valid")
var ErrBuildingQueryFailed = errors.New("failed to build sql query")
var ErrQueryFailed = errors.New("database query execution failed")
var ErrExecFailed = errors.New("database execution failed")
var ErrScanningDBRowFailed = errors.New("failed to scan database row")
var ErrEnsuringSchemaFailed = errors.New("failed to ensure document schema")

type (
	sqlQueryString = string
	// Document is the engine's unit of storage, an alias shared with the client package.
	Document = map[string]any
)

// Engine stores documents in one SQL table and retrieves them by collection
// and top-level field equality. It implements the client's Backend interface
// for PostgreSQL and SQLite through a database adapter.
type Engine struct {
	db               adapters.DBAdapter
	dialect          string
	tableName        string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewEngineFromPGXPool creates a new Engine using a pgx pool with optional configuration.
// The dialect is always postgres.
func NewEngineFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Engine, error) {
	if pool == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(pool), DialectPostgres, options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, dialect string, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), dialect, options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, dialect string, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), dialect, options...)
}

func newEngine(db adapters.DBAdapter, dialect string, options ...Option) (*Engine, error) {
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, errors.Join(ErrUnsupportedDialect, fmt.Errorf("dialect %q", dialect))
	}

	engine := &Engine{
		db:        db,
		dialect:   dialect,
		tableName: defaultTableName,
	}

	for _, option := range options {
		if err := option(engine); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// EnsureSchema creates the documents table and its namespace index when they
// do not exist yet.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	for _, statement := range e.schemaStatements() {
		if _, err := e.db.Exec(ctx, statement); err != nil {
			e.logErrorContext(ctx, logMsgEnsureSchemaFailed, err)
			return errors.Join(ErrEnsuringSchemaFailed, err)
		}
	}

	return nil
}

func (e *Engine) schemaStatements() []sqlQueryString {
	var table sqlQueryString

	switch e.dialect {
	case DialectPostgres:
		table = fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				%s uuid PRIMARY KEY,
				%s text NOT NULL,
				%s text NOT NULL,
				%s jsonb NOT NULL,
				%s timestamptz NOT NULL
			)`,
			e.tableName, colDocID, colDatabaseName, colCollectionName, colPayload, colInsertedAt)

	default:
		table = fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				%s text PRIMARY KEY,
				%s text NOT NULL,
				%s text NOT NULL,
				%s text NOT NULL,
				%s text NOT NULL
			)`,
			e.tableName, colDocID, colDatabaseName, colCollectionName, colPayload, colInsertedAt)
	}

	index := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_namespace ON %s (%s, %s)",
		e.tableName, e.tableName, colDatabaseName, colCollectionName)

	return []sqlQueryString{table, index}
}

// InsertDocuments stores the given documents and returns how many were written.
// Every document gets a time-ordered unique id on insert.
func (e *Engine) InsertDocuments(ctx context.Context, database string, collection string, docs []Document) (int64, error) {
	ctx, span := e.startOperationSpan(ctx, spanNameInsert, operationInsert, database, collection)

	sqlQuery, buildErr := e.buildInsertQuery(database, collection, docs)
	if buildErr != nil {
		e.logErrorContext(ctx, logMsgBuildInsertQueryFailed, buildErr)
		e.finishSpanError(span, errorTypeBuildQuery)
		return 0, buildErr
	}

	rowsAffected, duration, execErr := e.executeExec(ctx, sqlQuery, operationInsert)
	if execErr != nil {
		e.recordOperationError(ctx, operationInsert, errorTypeExec, duration)
		e.finishSpanError(span, errorTypeExec)
		return 0, execErr
	}

	e.recordOperationSuccess(ctx, operationInsert, duration, float64(rowsAffected))
	e.finishSpanSuccess(span, rowsAffected, duration)

	return rowsAffected, nil
}

// FindDocuments returns the documents matching the filter in insertion order.
// A nil or empty filter matches every document of the collection.
func (e *Engine) FindDocuments(ctx context.Context, database string, collection string, filter Document) ([]Document, error) {
	ctx, span := e.startOperationSpan(ctx, spanNameFind, operationFind, database, collection)

	sqlQuery, buildErr := e.buildFindQuery(database, collection, filter)
	if buildErr != nil {
		e.logErrorContext(ctx, logMsgBuildFindQueryFailed, buildErr)
		e.finishSpanError(span, errorTypeBuildQuery)
		return nil, buildErr
	}

	rows, duration, queryErr := e.executeQuery(ctx, sqlQuery, operationFind)
	if queryErr != nil {
		e.recordOperationError(ctx, operationFind, errorTypeQuery, duration)
		e.finishSpanError(span, errorTypeQuery)
		return nil, queryErr
	}
	defer e.closeRows(rows)

	docs, scanErr := e.scanDocuments(rows)
	if scanErr != nil {
		e.logErrorContext(ctx, logMsgScanRowFailed, scanErr)
		e.recordOperationError(ctx, operationFind, errorTypeScan, duration)
		e.finishSpanError(span, errorTypeScan)
		return nil, scanErr
	}

	e.recordOperationSuccess(ctx, operationFind, duration, float64(len(docs)))
	e.finishSpanSuccess(span, int64(len(docs)), duration)

	return docs, nil
}

// DeleteDocuments removes the documents matching the filter and returns how
// many were removed. A nil or empty filter removes every document of the collection.
func (e *Engine) DeleteDocuments(ctx context.Context, database string, collection string, filter Document) (int64, error) {
	ctx, span := e.startOperationSpan(ctx, spanNameDelete, operationDelete, database, collection)

	sqlQuery, buildErr := e.buildDeleteQuery(database, collection, filter)
	if buildErr != nil {
		e.logErrorContext(ctx, logMsgBuildDeleteQueryFailed, buildErr)
		e.finishSpanError(span, errorTypeBuildQuery)
		return 0, buildErr
	}

	rowsAffected, duration, execErr := e.executeExec(ctx, sqlQuery, operationDelete)
	if execErr != nil {
		e.recordOperationError(ctx, operationDelete, errorTypeExec, duration)
		e.finishSpanError(span, errorTypeExec)
		return 0, execErr
	}

	e.recordOperationSuccess(ctx, operationDelete, duration, float64(rowsAffected))
	e.finishSpanSuccess(span, rowsAffected, duration)

	return rowsAffected, nil
}

// DropCollection removes all documents of the collection.
func (e *Engine) DropCollection(ctx context.Context, database string, collection string) error {
	_, err := e.DeleteDocuments(ctx, database, collection, nil)
	return err
}

// Ping verifies the database is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.db.Ping(ctx)
}

// Close releases the underlying database handle.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Reset discards idle connections when the adapter supports it, so cleared
// pool generations are not reused.
func (e *Engine) Reset() {
	if resetter, ok := e.db.(interface{ Reset() }); ok {
		resetter.Reset()
	}
}

// executeQuery executes the SQL query and returns rows with timing information.
func (e *Engine) executeQuery(ctx context.Context, sqlQuery sqlQueryString, action string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if queryErr != nil {
		e.logErrorContext(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, duration, errors.Join(ErrQueryFailed, queryErr)
	}

	return rows, duration, nil
}

// executeExec executes the SQL statement and returns rows affected with timing information.
func (e *Engine) executeExec(ctx context.Context, sqlQuery sqlQueryString, action string) (
	int64,
	time.Duration,
	error,
) {

	start := time.Now()
	result, execErr := e.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	e.logQueryWithDuration(ctx, sqlQuery, action, duration)

	if execErr != nil {
		e.logErrorContext(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, duration, errors.Join(ErrExecFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		e.logErrorContext(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, duration, errors.Join(ErrExecFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (e *Engine) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if e.logger != nil {
			e.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// scanDocuments converts result rows back into documents.
func (e *Engine) scanDocuments(rows adapters.DBRows) ([]Document, error) {
	docs := make([]Document, 0)

	for rows.Next() {
		var payload []byte

		if scanErr := rows.Scan(&payload); scanErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		doc := Document{}
		if unmarshalErr := jsoniter.ConfigFastest.Unmarshal(payload, &doc); unmarshalErr != nil {
			return nil, errors.Join(ErrInvalidPayloadJSON, unmarshalErr)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func (e *Engine) buildInsertQuery(database string, collection string, docs []Document) (sqlQueryString, error) {
	if len(docs) == 0 {
		return "", errors.Join(ErrBuildingQueryFailed, fmt.Errorf("no documents supplied"))
	}

	insertedAt := time.Now().UTC().Format(time.RFC3339Nano)
	rows := make([][]any, 0, len(docs))

	for _, doc := range docs {
		payloadJSON, marshalErr := jsoniter.ConfigFastest.Marshal(doc)
		if marshalErr != nil {
			return "", errors.Join(ErrInvalidPayloadJSON, marshalErr)
		}

		docID, idErr := uuid.NewV7()
		if idErr != nil {
			return "", errors.Join(ErrBuildingQueryFailed, idErr)
		}

		rows = append(rows, []any{docID.String(), database, collection, string(payloadJSON), insertedAt})
	}

	insertStmt := goqu.Dialect(e.dialect).
		Insert(e.tableName).
		Cols(colDocID, colDatabaseName, colCollectionName, colPayload, colInsertedAt)

	for _, row := range rows {
		insertStmt = insertStmt.Vals(row)
	}

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (e *Engine) buildFindQuery(database string, collection string, filter Document) (sqlQueryString, error) {
	whereExpressions, buildErr := e.namespaceExpressions(database, collection, filter)
	if buildErr != nil {
		return "", buildErr
	}

	selectStmt := goqu.Dialect(e.dialect).
		From(e.tableName).
		Select(colPayload).
		Where(whereExpressions...).
		Order(goqu.I(colInsertedAt).Asc(), goqu.I(colDocID).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (e *Engine) buildDeleteQuery(database string, collection string, filter Document) (sqlQueryString, error) {
	whereExpressions, buildErr := e.namespaceExpressions(database, collection, filter)
	if buildErr != nil {
		return "", buildErr
	}

	deleteStmt := goqu.Dialect(e.dialect).
		Delete(e.tableName).
		Where(whereExpressions...)

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// namespaceExpressions builds the WHERE expressions addressing one collection,
// plus one equality expression per top-level filter key.
func (e *Engine) namespaceExpressions(database string, collection string, filter Document) ([]goqu.Expression, error) {
	expressions := []goqu.Expression{
		goqu.Ex{colDatabaseName: database},
		goqu.Ex{colCollectionName: collection},
	}

	for key, value := range filter {
		predicate, buildErr := e.predicateExpression(key, value)
		if buildErr != nil {
			return nil, buildErr
		}

		expressions = append(expressions, predicate)
	}

	return expressions, nil
}

// predicateExpression compiles one top-level field equality to the dialect's
// JSON matching form: containment for postgres, json_extract for sqlite.
func (e *Engine) predicateExpression(key string, value any) (goqu.Expression, error) {
	if e.dialect == DialectSQLite {
		return goqu.L("json_extract("+colPayload+", ?)", "$."+key).Eq(goqu.V(value)), nil
	}

	predicateJSON, marshalErr := jsoniter.ConfigFastest.Marshal(Document{key: value})
	if marshalErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, marshalErr)
	}

	quoted := strings.ReplaceAll(string(predicateJSON), "'", "''")

	return goqu.L(fmt.Sprintf("%s @> '%s'", colPayload, quoted)), nil
}
