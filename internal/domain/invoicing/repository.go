package invoicing

import (
	"context"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteRepository defines the interface for quote persistence
type QuoteRepository interface {
	// FindByIDForTenant finds a quote by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Quote, error)

	// FindAllForTenant finds all quotes for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Quote, error)

	// CountForTenant counts quotes for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts quotes per status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[QuoteStatus]int64, error)

	// Save creates a new quote with its items
	Save(ctx context.Context, quote *Quote) error

	// SaveWithLock updates a quote with optimistic locking (version check)
	SaveWithLock(ctx context.Context, quote *Quote) error

	// SaveConversion persists the converted quote and the new invoice in one transaction
	SaveConversion(ctx context.Context, quote *Quote, invoice *Invoice) error

	// GenerateQuoteNumber generates a unique quote number for a tenant
	GenerateQuoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForTenant finds an invoice with its payments
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByQuoteID finds the invoice produced from a quote
	FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*Invoice, error)

	// FindAllForTenant finds all invoices for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// FindOverdueCandidates finds unpaid draft or sent invoices due before asOf, across tenants
	FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)

	// CountForTenant counts invoices for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts invoices per status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[InvoiceStatus]int64, error)

	// SumTotals sums invoice totals for a tenant, excluding the given statuses
	SumTotals(ctx context.Context, tenantID uuid.UUID, exclude ...InvoiceStatus) (decimal.Decimal, error)

	// Save creates a new invoice with its items
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock updates an invoice with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// GenerateInvoiceNumber generates a unique invoice number for a tenant
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// Create inserts a payment
	Create(ctx context.Context, payment *Payment) error

	// FindByInvoice lists the payments of one invoice, oldest first
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)

	// FindAllForTenant lists payments for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Payment, error)

	// CountForTenant counts payments for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// SumForTenant sums all payment amounts for a tenant
	SumForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
}
