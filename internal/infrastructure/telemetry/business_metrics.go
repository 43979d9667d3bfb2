// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks quoting and invoicing activity.
// All Record methods are safe to call on a nil receiver.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	documentCreatedTotal *Counter
	quoteConvertedTotal  *Counter
	invoiceStatusTotal   *Counter
	paymentTotal         *Counter
	paymentAmountTotal   *Counter

	overdueInvoices   *Gauge[int64]
	outstandingAmount *Gauge[float64]

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	receivablesProvider ReceivablesMetricsProvider
}

// ReceivablesMetricsProvider supplies per-tenant receivables figures for periodic collection.
type ReceivablesMetricsProvider interface {
	// CountOverdue returns the number of invoices in overdue status
	CountOverdue(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// OutstandingAmount returns invoiced totals minus payments for open invoices
	OutstandingAmount(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter               metric.Meter
	Logger              *zap.Logger
	CollectInterval     time.Duration // Default: 5 minutes
	ReceivablesProvider ReceivablesMetricsProvider
}

// Document types for metrics labeling
const (
	DocumentTypeQuote   = "quote"
	DocumentTypeInvoice = "invoice"
)

// Invoice sources for metrics labeling
const (
	InvoiceSourceDirect = "direct"
	InvoiceSourceQuote  = "quote"
)

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:               cfg.Meter,
		logger:              logger,
		stopChan:            make(chan struct{}),
		receivablesProvider: cfg.ReceivablesProvider,
	}

	var err error
	if bm.documentCreatedTotal, err = NewCounter(cfg.Meter,
		"invoicing_document_created_total", "Total number of quotes and invoices created", "{documents}"); err != nil {
		return nil, err
	}
	if bm.quoteConvertedTotal, err = NewCounter(cfg.Meter,
		"invoicing_quote_converted_total", "Total number of quotes converted to invoices", "{quotes}"); err != nil {
		return nil, err
	}
	if bm.invoiceStatusTotal, err = NewCounter(cfg.Meter,
		"invoicing_invoice_status_change_total", "Invoice status transitions by target status", "{transitions}"); err != nil {
		return nil, err
	}
	if bm.paymentTotal, err = NewCounter(cfg.Meter,
		"invoicing_payment_total", "Total number of payments recorded", "{payments}"); err != nil {
		return nil, err
	}
	if bm.paymentAmountTotal, err = NewCounter(cfg.Meter,
		"invoicing_payment_amount_total", "Total payment amount in minor currency units", "{cents}"); err != nil {
		return nil, err
	}
	if bm.overdueInvoices, err = NewGauge(cfg.Meter,
		"invoicing_overdue_invoices", "Current number of overdue invoices", "{invoices}"); err != nil {
		return nil, err
	}
	if bm.outstandingAmount, err = NewFloatGauge(cfg.Meter,
		"invoicing_outstanding_amount", "Open invoice balance", "{currency}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordQuoteCreated counts a new quote.
func (bm *BusinessMetrics) RecordQuoteCreated(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.documentCreatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(DocumentTypeQuote),
	)
}

// RecordInvoiceCreated counts a new invoice, labelled by how it was produced.
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context, tenantID uuid.UUID, source string) {
	if bm == nil {
		return
	}
	bm.documentCreatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDocumentType.String(DocumentTypeInvoice),
		AttrInvoiceSource.String(source),
	)
}

// RecordQuoteConverted counts a conversion and the invoice it produced.
func (bm *BusinessMetrics) RecordQuoteConverted(ctx context.Context, tenantID uuid.UUID) {
	if bm == nil {
		return
	}
	bm.quoteConvertedTotal.Inc(ctx, AttrTenantID.String(tenantID.String()))
	bm.RecordInvoiceCreated(ctx, tenantID, InvoiceSourceQuote)
}

// RecordInvoiceStatus counts a transition into status.
func (bm *BusinessMetrics) RecordInvoiceStatus(ctx context.Context, tenantID uuid.UUID, status string) {
	if bm == nil {
		return
	}
	bm.invoiceStatusTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrInvoiceStatus.String(status),
	)
}

// RecordPayment counts a payment and adds its amount in minor units.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(method),
	}
	bm.paymentTotal.Inc(ctx, attrs...)
	bm.paymentAmountTotal.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectReceivables(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivables(ctx, tenantProvider)
		}
	}
}

func (bm *BusinessMetrics) collectReceivables(ctx context.Context, tenantProvider TenantProvider) {
	if bm.receivablesProvider == nil {
		bm.logger.Debug("No receivables provider configured, skipping collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		attr := AttrTenantID.String(tenantID.String())

		if count, err := bm.receivablesProvider.CountOverdue(ctx, tenantID); err != nil {
			bm.logger.Warn("Failed to count overdue invoices",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		} else {
			bm.overdueInvoices.Record(ctx, count, attr)
		}

		if amount, err := bm.receivablesProvider.OutstandingAmount(ctx, tenantID); err != nil {
			bm.logger.Warn("Failed to compute outstanding amount",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		} else {
			bm.outstandingAmount.Record(ctx, amount.InexactFloat64(), attr)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	if bm == nil {
		return
	}
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
