package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	queryStartKey          = "telemetry:query_start"
	defaultSlowQueryThresh = 200 * time.Millisecond
)

// InstrumentDB attaches tracing (otelgorm) and query metrics to db. Tracing
// follows DBTraceEnabled; metrics are always registered against meter, which
// is a no-op when telemetry is disabled.
func InstrumentDB(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
		logger.Info("Database tracing enabled", zap.Bool("log_full_sql", cfg.DBLogFullSQL))
	}

	plugin, err := NewQueryMetrics(meter, cfg.DBSlowQueryThresh, logger)
	if err != nil {
		return err
	}
	if err := db.Use(plugin); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		return plugin.ObservePool(sqlDB)
	}
	return nil
}

// QueryMetrics is a GORM plugin recording query counts, durations and slow
// queries. Slow queries also get an event on the active span.
type QueryMetrics struct {
	meter    metric.Meter
	logger   *zap.Logger
	slow     time.Duration
	total    *Counter
	errors   *Counter
	slowOps  *Counter
	duration *Histogram
}

// NewQueryMetrics creates the plugin; a zero threshold uses 200ms
func NewQueryMetrics(meter metric.Meter, slowThreshold time.Duration, logger *zap.Logger) (*QueryMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowQueryThresh
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &QueryMetrics{meter: meter, logger: logger, slow: slowThreshold}

	var err error
	if m.total, err = NewCounter(meter, "db_queries_total", "Total number of database queries", "{queries}"); err != nil {
		return nil, err
	}
	if m.errors, err = NewCounter(meter, "db_query_errors_total", "Database queries that returned an error", "{queries}"); err != nil {
		return nil, err
	}
	if m.slowOps, err = NewCounter(meter, "db_slow_queries_total", "Queries slower than the configured threshold", "{queries}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *QueryMetrics) Name() string { return "invoicing:query_metrics" }

// Initialize registers before/after callbacks on every GORM processor.
func (m *QueryMetrics) Initialize(db *gorm.DB) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) { m.record(tx, op) }
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", after("INSERT")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", after("SELECT")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", after("UPDATE")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("DELETE")); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("metrics:before_row", before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("metrics:after_row", after("")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:after_raw", after(""))
}

func (m *QueryMetrics) record(tx *gorm.DB, op string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if op == "" {
		op = OperationFromSQL(tx.Statement.SQL.String())
	}

	var elapsed time.Duration
	if start, ok := tx.InstanceGet(queryStartKey); ok {
		if t, ok := start.(time.Time); ok {
			elapsed = time.Since(t)
		}
	}

	attrs := AttrDBOperation.String(op)
	m.total.Inc(ctx, attrs)
	m.duration.RecordDuration(ctx, elapsed, attrs)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		m.errors.Inc(ctx, attrs)
	}
	if elapsed < m.slow {
		return
	}

	table := tx.Statement.Table
	m.slowOps.Inc(ctx, attrs, AttrDBTable.String(table))
	trace.SpanFromContext(ctx).AddEvent("slow_query", trace.WithAttributes(
		AttrDBTable.String(table),
		AttrDBOperation.String(op),
		attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
	))
	m.logger.Warn("Slow query",
		zap.String("operation", op),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
		zap.Duration("threshold", m.slow),
	)
}

// ObservePool exports connection pool usage as an observable gauge.
func (m *QueryMetrics) ObservePool(sqlDB *sql.DB) error {
	if sqlDB == nil {
		return nil
	}
	gauge, err := m.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database connections by state"),
		metric.WithUnit("{connections}"),
	)
	if err != nil {
		return err
	}
	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(gauge, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(gauge, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(gauge, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, gauge)
	return err
}

// OperationFromSQL classifies a raw statement by its leading keyword
func OperationFromSQL(statement string) string {
	statement = strings.ToUpper(strings.TrimSpace(statement))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(statement, op) {
			return op
		}
	}
	return "OTHER"
}
