package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartedAt = "catalog:query_started_at"

// QueryTracing configures spans for catalog reads. The service never
// writes, so only the query, row and raw callbacks are hooked.
type QueryTracing struct {
	Enabled   bool
	WithVars  bool          // keep bound variables in db.statement; development only
	SlowAfter time.Duration // queries above this get db.slow_query
	System    string        // db.system reported by otelgorm
}

func DefaultQueryTracing() QueryTracing {
	return QueryTracing{SlowAfter: 200 * time.Millisecond, System: "postgresql"}
}

type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// Instrument installs otelgorm and the slow query hooks on db. Instrumenting
// the same handle twice fails.
func (q QueryTracing) Instrument(db *gorm.DB, log *zap.Logger) error {
	if !q.Enabled {
		log.Debug("catalog query tracing disabled")
		return nil
	}
	if q.SlowAfter <= 0 {
		q.SlowAfter = DefaultQueryTracing().SlowAfter
	}
	if q.System == "" {
		q.System = DefaultQueryTracing().System
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(q.System)}
	if !q.WithVars {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("otelgorm: %w", err)
	}

	cb := db.Callback()
	hooks := []struct {
		name string
		at   callbackRegistrar
		fn   func(*gorm.DB)
	}{
		{"catalog:start_query", cb.Query().Before("gorm:query"), markStart},
		{"catalog:start_row", cb.Row().Before("gorm:row"), markStart},
		{"catalog:start_raw", cb.Raw().Before("gorm:raw"), markStart},
		{"catalog:end_query", cb.Query().After("gorm:query"), q.annotate},
		{"catalog:end_row", cb.Row().After("gorm:row"), q.annotate},
		{"catalog:end_raw", cb.Raw().After("gorm:raw"), q.annotate},
	}
	for _, h := range hooks {
		if err := h.at.Register(h.name, h.fn); err != nil {
			return fmt.Errorf("register %s: %w", h.name, err)
		}
	}

	log.Info("catalog query tracing enabled",
		zap.String("db_system", q.System),
		zap.Bool("with_vars", q.WithVars),
		zap.Duration("slow_after", q.SlowAfter),
	)
	return nil
}

func markStart(db *gorm.DB) {
	db.InstanceSet(queryStartedAt, time.Now())
}

func (q QueryTracing) annotate(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", db.Statement.RowsAffected)}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}
	if v, ok := db.InstanceGet(queryStartedAt); ok {
		if elapsed := time.Since(v.(time.Time)); elapsed > q.SlowAfter {
			attrs = append(attrs,
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
	span.SetAttributes(attrs...)

	// a missing row is a normal price lookup outcome
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}
}
