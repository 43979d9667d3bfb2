package invoicing

import (
	"context"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardService aggregates tenant-wide figures for the home screen
type DashboardService struct {
	quoteRepo    invoicing.QuoteRepository
	invoiceRepo  invoicing.InvoiceRepository
	paymentRepo  invoicing.PaymentRepository
	customerRepo partner.CustomerRepository
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	quoteRepo invoicing.QuoteRepository,
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	customerRepo partner.CustomerRepository,
) *DashboardService {
	return &DashboardService{
		quoteRepo:    quoteRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
	}
}

// Summary runs the dashboard queries concurrently.
// Cancelled invoices are excluded from the invoiced total.
func (s *DashboardService) Summary(ctx context.Context, tenantID uuid.UUID) (*DashboardSummary, error) {
	var (
		quoteCounts   map[invoicing.QuoteStatus]int64
		invoiceCounts map[invoicing.InvoiceStatus]int64
		invoiced      decimal.Decimal
		paid          decimal.Decimal
		customers     int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quoteCounts, err = s.quoteRepo.CountByStatus(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		invoiceCounts, err = s.invoiceRepo.CountByStatus(gctx, tenantID)
		return err
	})
	g.Go(func() error {
		var err error
		invoiced, err = s.invoiceRepo.SumTotals(gctx, tenantID, invoicing.InvoiceStatusCancelled)
		return err
	})
	g.Go(func() error {
		var err error
		paid, err = s.paymentRepo.SumForTenant(gctx, tenantID)
		return err
	})
	if s.customerRepo != nil {
		g.Go(func() error {
			var err error
			customers, err = s.customerRepo.CountForTenant(gctx, tenantID, shared.DefaultFilter())
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		QuotesByStatus:   make(map[string]int64, len(invoicing.AllQuoteStatuses)),
		InvoicesByStatus: make(map[string]int64, len(invoicing.AllInvoiceStatuses)),
		TotalInvoiced:    invoiced,
		TotalPaid:        paid,
		Outstanding:      decimal.Max(invoiced.Sub(paid), decimal.Zero),
		CustomerCount:    customers,
		GeneratedAt:      time.Now(),
	}
	for _, status := range invoicing.AllQuoteStatuses {
		summary.QuotesByStatus[string(status)] = quoteCounts[status]
	}
	for _, status := range invoicing.AllInvoiceStatuses {
		summary.InvoicesByStatus[string(status)] = invoiceCounts[status]
	}
	return summary, nil
}
