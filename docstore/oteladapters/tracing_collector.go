package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/docstorekit/docstore-go/docstore"
	"github.com/docstorekit/docstore-go/docstore/sqlengine"
)

// TracingCollector implements docstore.TracingCollector using the OpenTelemetry tracing API.
// It provides seamless integration with OpenTelemetry tracing, creating spans for client
// and engine operations and propagating trace context automatically.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a new OpenTelemetry tracing collector.
// The tracer should be created from your OpenTelemetry TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan creates a new OpenTelemetry span with the given name and attributes.
// It returns a new context with the span and a SpanContext wrapper for the span.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, docstore.SpanContext) {
	spanOptions := make([]trace.SpanStartOption, 0, len(attrs))
	for key, value := range attrs {
		spanOptions = append(spanOptions, trace.WithAttributes(attribute.String(key, value)))
	}

	spanCtx, span := t.tracer.Start(ctx, name, spanOptions...)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan completes an OpenTelemetry span with the given status and additional attributes.
// This method extracts the span from the SpanContext wrapper and finishes it.
func (t *TracingCollector) FinishSpan(spanCtx docstore.SpanContext, status string, attrs map[string]string) {
	if otelSpanCtx, ok := spanCtx.(*OTelSpanContext); ok {
		for key, value := range attrs {
			otelSpanCtx.span.SetAttributes(attribute.String(key, value))
		}

		otelSpanCtx.setSpanStatus(status)
		otelSpanCtx.span.End()
	}
}

// Ensure TracingCollector implements docstore.TracingCollector
var _ docstore.TracingCollector = (*TracingCollector)(nil)

// engineTracingCollector adapts TracingCollector to the sqlengine interface types.
// The interfaces are structurally identical, but Go's nominal typing of method
// signatures requires explicit forwarding for the SpanContext parameter and result.
type engineTracingCollector struct {
	inner *TracingCollector
}

// NewEngineTracingCollector wraps a TracingCollector for use with sqlengine.WithTracing.
func NewEngineTracingCollector(tracer trace.Tracer) sqlengine.TracingCollector {
	return &engineTracingCollector{inner: NewTracingCollector(tracer)}
}

func (t *engineTracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, sqlengine.SpanContext) {
	spanCtx, span := t.inner.StartSpan(ctx, name, attrs)
	return spanCtx, span.(*OTelSpanContext)
}

func (t *engineTracingCollector) FinishSpan(spanCtx sqlengine.SpanContext, status string, attrs map[string]string) {
	if otelSpanCtx, ok := spanCtx.(*OTelSpanContext); ok {
		t.inner.FinishSpan(otelSpanCtx, status, attrs)
	}
}

// Ensure engineTracingCollector implements sqlengine.TracingCollector
var _ sqlengine.TracingCollector = (*engineTracingCollector)(nil)

// OTelSpanContext implements docstore.SpanContext by wrapping an OpenTelemetry span.
// It provides the interface methods while maintaining access to the underlying OTel span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus sets the OpenTelemetry span status based on the provided status string.
// It maps common status strings to appropriate OpenTelemetry status codes.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds an attribute to the OpenTelemetry span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus maps status strings to OpenTelemetry span status codes.
func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case "ok", "success", "completed":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed", "failure":
		s.span.SetStatus(codes.Error, "Operation failed")
	case "cancelled", "canceled":
		s.span.SetStatus(codes.Error, "Operation cancelled")
	case "timeout":
		s.span.SetStatus(codes.Error, "Operation timed out")
	default:
		// For unknown status strings, record as span attribute
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// Ensure OTelSpanContext implements the span interfaces of both layers.
var _ docstore.SpanContext = (*OTelSpanContext)(nil)
var _ sqlengine.SpanContext = (*OTelSpanContext)(nil)
