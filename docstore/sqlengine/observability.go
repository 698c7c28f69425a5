package sqlengine

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	logMsgSQLQueryExecuted       = "sql query executed: "
	logMsgEnsureSchemaFailed     = "ensuring document schema failed"
	logMsgBuildInsertQueryFailed = "building insert query failed"
	logMsgBuildFindQueryFailed   = "building find query failed"
	logMsgBuildDeleteQueryFailed = "building delete query failed"
	logMsgDBQueryFailed          = "database query failed"
	logMsgDBExecFailed           = "database execution failed"
	logMsgRowsAffectedFailed     = "reading rows affected failed"
	logMsgCloseRowsFailed        = "closing database rows failed"
	logMsgScanRowFailed          = "scanning database row failed"

	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

const (
	metricOperationDuration = "sqlengine_operation_duration"
	metricOperationErrors   = "sqlengine_operation_errors"
	metricDocumentsAffected = "sqlengine_documents_affected"

	statusSuccess = "success"
	statusError   = "error"

	operationInsert = "insert_documents"
	operationFind   = "find_documents"
	operationDelete = "delete_documents"

	spanNameInsert = "sqlengine.insert_documents"
	spanNameFind   = "sqlengine.find_documents"
	spanNameDelete = "sqlengine.delete_documents"

	spanAttrOperation  = "operation"
	spanAttrDatabase   = "database_name"
	spanAttrCollection = "collection_name"
	spanAttrTable      = "table"
	spanAttrAffected   = "documents_affected"
	spanAttrDurationMS = "duration_ms"
	spanAttrErrorType  = "error_type"

	errorTypeBuildQuery = "build_query"
	errorTypeQuery      = "query"
	errorTypeExec       = "exec"
	errorTypeScan       = "scan"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
// The contextual logger takes precedence when both are configured.
func (e *Engine) logQueryWithDuration(
	ctx context.Context,
	sqlQuery sqlQueryString,
	action string,
	duration time.Duration,
) {
	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, logMsgSQLQueryExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)

		return
	}

	if e.logger != nil {
		e.logger.Debug(logMsgSQLQueryExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logErrorContext logs error information at the error level if a logger is configured.
// The contextual logger takes precedence when both are configured.
func (e *Engine) logErrorContext(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if e.logger != nil {
		e.logger.Error(message, allArgs...)
	}
}

// recordOperationSuccess records duration and affected-document metrics for a successful operation.
func (e *Engine) recordOperationSuccess(ctx context.Context, operation string, duration time.Duration, affected float64) {
	e.recordDurationMetricsContext(ctx, metricOperationDuration, duration, operation, statusSuccess)
	e.recordValueMetricsContext(ctx, metricDocumentsAffected, affected, operation, statusSuccess)
}

// recordOperationError records duration and error-counter metrics for a failed operation.
func (e *Engine) recordOperationError(ctx context.Context, operation string, errorType string, duration time.Duration) {
	e.recordDurationMetricsContext(ctx, metricOperationDuration, duration, operation, statusError)
	e.recordErrorMetricsContext(ctx, operation, errorType)
}

// recordDurationMetricsContext records duration metrics with context if the collector supports it.
func (e *Engine) recordDurationMetricsContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation, status string,
) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := e.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
	} else {
		e.metricsCollector.RecordDuration(metricName, duration, labels)
	}
}

// recordValueMetricsContext records value metrics with context if the collector supports it.
func (e *Engine) recordValueMetricsContext(
	ctx context.Context,
	metricName string,
	value float64,
	operation, status string,
) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := e.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		e.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// recordErrorMetricsContext records error metrics with context if the collector supports it.
func (e *Engine) recordErrorMetricsContext(ctx context.Context, operation, errorType string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := e.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricOperationErrors, labels)
	} else {
		e.metricsCollector.IncrementCounter(metricOperationErrors, labels)
	}
}

// startOperationSpan starts a tracing span if the tracing collector is configured.
func (e *Engine) startOperationSpan(
	ctx context.Context,
	spanName string,
	operation string,
	database string,
	collection string,
) (context.Context, SpanContext) {
	if e.tracingCollector == nil {
		return ctx, nil
	}

	return e.tracingCollector.StartSpan(ctx, spanName, map[string]string{
		spanAttrOperation:  operation,
		spanAttrDatabase:   database,
		spanAttrCollection: collection,
		spanAttrTable:      e.tableName,
	})
}

// finishSpanSuccess finishes a successful operation span with results.
func (e *Engine) finishSpanSuccess(span SpanContext, affected int64, duration time.Duration) {
	if span == nil {
		return
	}

	span.SetStatus(statusSuccess)
	span.AddAttribute(spanAttrAffected, fmt.Sprintf("%d", affected))
	span.AddAttribute(spanAttrDurationMS, fmt.Sprintf("%.2f", toMilliseconds(duration)))

	e.tracingCollector.FinishSpan(span, statusSuccess, map[string]string{
		spanAttrAffected: fmt.Sprintf("%d", affected),
	})
}

// finishSpanError finishes an operation span with error details.
func (e *Engine) finishSpanError(span SpanContext, errorType string) {
	if span == nil {
		return
	}

	span.SetStatus(statusError)
	span.AddAttribute(spanAttrErrorType, errorType)

	e.tracingCollector.FinishSpan(span, statusError, map[string]string{spanAttrErrorType: errorType})
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
