package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func instrumentErr(kind, name string, err error) error {
	if err != nil {
		return fmt.Errorf("create %s %s: %w", kind, name, err)
	}
	return nil
}

// Counter is a monotonic int64 sum
type Counter struct {
	add func(context.Context, int64, ...metric.AddOption)
}

func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, instrumentErr("counter", name, err)
	}
	return &Counter{add: c.Add}, nil
}

func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.add(ctx, n, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) { c.Add(ctx, 1, attrs...) }

// HistogramOpts configures NewHistogram; Boundaries are bucket upper bounds
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// Histogram records float64 distributions, durations in seconds
type Histogram struct {
	record func(context.Context, float64, ...metric.RecordOption)
}

func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	options := []metric.Float64HistogramOption{metric.WithDescription(opts.Description), metric.WithUnit(opts.Unit)}
	if len(opts.Boundaries) > 0 {
		options = append(options, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}
	h, err := meter.Float64Histogram(opts.Name, options...)
	if err != nil {
		return nil, instrumentErr("histogram", opts.Name, err)
	}
	return &Histogram{record: h.Record}, nil
}

func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.record(ctx, v, metric.WithAttributes(attrs...))
}

func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// Gauge holds the last recorded value
type Gauge[N int64 | float64] struct {
	record func(context.Context, N, ...metric.RecordOption)
}

func (g *Gauge[N]) Record(ctx context.Context, v N, attrs ...attribute.KeyValue) {
	g.record(ctx, v, metric.WithAttributes(attrs...))
}

func NewGauge(meter metric.Meter, name, description, unit string) (*Gauge[int64], error) {
	g, err := meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, instrumentErr("gauge", name, err)
	}
	return &Gauge[int64]{record: g.Record}, nil
}

func NewFloatGauge(meter metric.Meter, name, description, unit string) (*Gauge[float64], error) {
	g, err := meter.Float64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, instrumentErr("gauge", name, err)
	}
	return &Gauge[float64]{record: g.Record}, nil
}

// Metric attribute keys
const (
	AttrTenantID = attribute.Key("tenant_id")
	AttrUserID   = attribute.Key("user_id")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBState     = attribute.Key("db.pool.state")

	AttrDocumentType  = attribute.Key("document_type")
	AttrInvoiceSource = attribute.Key("invoice_source")
	AttrInvoiceStatus = attribute.Key("invoice_status")
	AttrPaymentMethod = attribute.Key("payment_method")
)

// Histogram bucket boundaries in seconds
var (
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets   = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)
