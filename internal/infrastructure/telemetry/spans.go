package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of pricing and indexing spans
const TracerName = "github.com/catalogsync/indexer"

// Attribute keys shared by spans and metrics
const (
	AttrSKU        = attribute.Key("catalog.sku")
	AttrStoreID    = attribute.Key("catalog.store_id")
	AttrWebsiteID  = attribute.Key("catalog.website_id")
	AttrGroupCount = attribute.Key("catalog.group_count")
	AttrRunID      = attribute.Key("indexing.run_id")
	AttrIndexed    = attribute.Key("indexing.indexed")
	AttrFailed     = attribute.Key("indexing.failed")
	AttrErrorCode  = attribute.Key("error.code")
)

// StartSpan starts an internal span on the global tracer provider. The
// caller ends it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks span failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
