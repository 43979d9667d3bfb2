package invoicing

import (
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is a record of funds received against one invoice
type Payment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      string // Free text, e.g. "bank transfer"
	Reference   string
	Notes       string
	CreatedAt   time.Time
}

// NewPayment creates a payment with a positive amount
func NewPayment(tenantID, invoiceID uuid.UUID, amount decimal.Decimal, paidOn time.Time, method string) (*Payment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method cannot be empty")
	}

	now := time.Now()
	if paidOn.IsZero() {
		paidOn = now
	}

	return &Payment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		PaymentDate: paidOn,
		Method:      method,
		CreatedAt:   now,
	}, nil
}
