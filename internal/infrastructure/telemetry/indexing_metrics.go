package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// resolveBuckets are histogram boundaries for one product's price resolution, in seconds
var resolveBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// IndexingMetrics records product outcomes of indexing runs
type IndexingMetrics struct {
	indexed  metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewIndexingMetrics registers the indexing instruments on meter
func NewIndexingMetrics(meter metric.Meter) (*IndexingMetrics, error) {
	indexed, err := meter.Int64Counter("catalog_products_indexed_total",
		metric.WithDescription("Products priced and written to the sink"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexed counter: %w", err)
	}
	failed, err := meter.Int64Counter("catalog_products_failed_total",
		metric.WithDescription("Products skipped because pricing failed"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create failed counter: %w", err)
	}
	duration, err := meter.Float64Histogram("catalog_price_resolve_duration_seconds",
		metric.WithDescription("Time to resolve the price payload of one product"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(resolveBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve duration histogram: %w", err)
	}
	return &IndexingMetrics{indexed: indexed, failed: failed, duration: duration}, nil
}

// RecordIndexed counts one priced product
func (m *IndexingMetrics) RecordIndexed(ctx context.Context, storeID int64, elapsed time.Duration) {
	store := metric.WithAttributes(AttrStoreID.Int64(storeID))
	m.indexed.Add(ctx, 1, store)
	m.duration.Record(ctx, elapsed.Seconds(), store)
}

// RecordFailed counts one failed product by error code
func (m *IndexingMetrics) RecordFailed(ctx context.Context, storeID int64, code string) {
	m.failed.Add(ctx, 1, metric.WithAttributes(AttrStoreID.Int64(storeID), AttrErrorCode.String(code)))
}
