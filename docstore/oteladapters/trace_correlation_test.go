package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/oteladapters"
)

// TestTraceCorrelation verifies that the SlogBridgeLogger accepts contexts with
// and without an active span. The exact correlation format depends on the
// configured LoggerProvider; here we mainly verify both paths work.
func TestTraceCorrelation(t *testing.T) {
	// Setup OpenTelemetry tracer
	tracerProvider := trace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	defer tracerProvider.Shutdown(context.Background())

	tracer := otel.Tracer("test")

	// Create SlogBridgeLogger that will use OpenTelemetry
	logger := oteladapters.NewSlogBridgeLogger("test")

	// Test without tracing context
	t.Run("without_trace_context", func(t *testing.T) {
		ctx := context.Background()

		logger.InfoContext(ctx, "command executed without an active trace")
	})

	// Test with tracing context
	t.Run("with_trace_context", func(t *testing.T) {
		// Create a span to establish trace context
		ctx, span := tracer.Start(context.Background(), "docstore.find")
		defer span.End()

		logger.InfoContext(ctx, "command executed inside an active trace")
	})
}

// TestSlogBridgeLoggerInterface verifies that SlogBridgeLogger properly implements
// the docstore.ContextualLogger interface.
func TestSlogBridgeLoggerInterface(t *testing.T) {
	var logger docstore.ContextualLogger = oteladapters.NewSlogBridgeLogger("test")
	ctx := context.Background()

	// Test all interface methods
	logger.DebugContext(ctx, "debug message", "key", "value")
	logger.InfoContext(ctx, "info message", "key", "value")
	logger.WarnContext(ctx, "warn message", "key", "value")
	logger.ErrorContext(ctx, "error message", "key", "value")

	// If we get here without panicking, the interface is properly implemented
}

// TestSlogBridgeLoggerWithHandler verifies the alternative constructor works.
func TestSlogBridgeLoggerWithHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	logger.InfoContext(ctx, "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected log output to contain 'test message', got: %s", output)
	}
}
