package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for reconciliation and backend spans
const TracerName = "github.com/shopadmin/backend"

// Span and metric attribute keys
var (
	AttrOrderID   = attribute.Key("order.id")
	AttrRunID     = attribute.Key("reconcile.run_id")
	AttrTrigger   = attribute.Key("reconcile.trigger")
	AttrStatus    = attribute.Key("reconcile.status")
	AttrResult    = attribute.Key("reconcile.result")
	AttrOperation = attribute.Key("orderapi.operation")
	AttrOutcome   = attribute.Key("orderapi.outcome")
)

// StartSpan starts a span of the given kind on the global tracer. The
// caller ends it, usually through EndSpan.
func StartSpan(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// EndSpan sets the final status from err and ends span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		RecordError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
