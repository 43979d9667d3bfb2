package invoicing

import (
	"context"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentService lists payments across a tenant's invoices
type PaymentService struct {
	paymentRepo invoicing.PaymentRepository
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo invoicing.PaymentRepository) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo}
}

// List retrieves payments with filtering and pagination, newest first
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "payment_date",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
	if err := filterID(domainFilter.Filters, "invoice_id", filter.InvoiceID); err != nil {
		return nil, 0, err
	}
	if filter.Method != "" {
		domainFilter.Filters["method"] = filter.Method
	}
	if filter.From != nil {
		domainFilter.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		domainFilter.Filters["to"] = *filter.To
	}
	domainFilter = domainFilter.Normalize()

	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPaymentResponses(payments), total, nil
}
