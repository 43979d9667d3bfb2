package invoicing

import (
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeQuote   = "Quote"
	AggregateTypeInvoice = "Invoice"
	AggregateTypePayment = "Payment"
)

// Event type constants
const (
	EventTypeQuoteCreated         = "QuoteCreated"
	EventTypeQuoteUpdated         = "QuoteUpdated"
	EventTypeQuoteStatusChanged   = "QuoteStatusChanged"
	EventTypeQuoteConverted       = "QuoteConverted"
	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypeInvoiceUpdated       = "InvoiceUpdated"
	EventTypeInvoiceStatusChanged = "InvoiceStatusChanged"
	EventTypePaymentRecorded      = "PaymentRecorded"
)

// QuoteCreatedEvent is raised when a new quote is drafted
type QuoteCreatedEvent struct {
	shared.BaseDomainEvent
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`
	ClientName  string    `json:"client_name"`
}

// NewQuoteCreatedEvent creates a new QuoteCreatedEvent
func NewQuoteCreatedEvent(q *Quote) *QuoteCreatedEvent {
	return &QuoteCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteCreated, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		QuoteNumber:     q.QuoteNumber,
		ClientName:      q.Client.Name,
	}
}

// QuoteUpdatedEvent is raised when quote content changes
type QuoteUpdatedEvent struct {
	shared.BaseDomainEvent
	QuoteID uuid.UUID       `json:"quote_id"`
	Total   decimal.Decimal `json:"total"`
}

// NewQuoteUpdatedEvent creates a new QuoteUpdatedEvent
func NewQuoteUpdatedEvent(q *Quote) *QuoteUpdatedEvent {
	return &QuoteUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteUpdated, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		Total:           q.Total,
	}
}

// QuoteStatusChangedEvent is raised on every quote lifecycle transition
type QuoteStatusChangedEvent struct {
	shared.BaseDomainEvent
	QuoteID    uuid.UUID   `json:"quote_id"`
	FromStatus QuoteStatus `json:"from_status"`
	ToStatus   QuoteStatus `json:"to_status"`
}

// NewQuoteStatusChangedEvent creates a new QuoteStatusChangedEvent
func NewQuoteStatusChangedEvent(q *Quote, from QuoteStatus) *QuoteStatusChangedEvent {
	return &QuoteStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteStatusChanged, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		FromStatus:      from,
		ToStatus:        q.Status,
	}
}

// QuoteConvertedEvent is raised when a quote produced an invoice
type QuoteConvertedEvent struct {
	shared.BaseDomainEvent
	QuoteID       uuid.UUID       `json:"quote_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
}

// NewQuoteConvertedEvent creates a new QuoteConvertedEvent
func NewQuoteConvertedEvent(q *Quote, inv *Invoice) *QuoteConvertedEvent {
	return &QuoteConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteConverted, AggregateTypeQuote, q.ID, q.TenantID),
		QuoteID:         q.ID,
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Total:           inv.Total,
	}
}

// InvoiceCreatedEvent is raised when an invoice is created directly or by conversion
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number"`
	QuoteID       *uuid.UUID `json:"quote_id,omitempty"`
	DueDate       time.Time  `json:"due_date"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		QuoteID:         inv.QuoteID,
		DueDate:         inv.DueDate,
	}
}

// InvoiceUpdatedEvent is raised when invoice content changes
type InvoiceUpdatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Total     decimal.Decimal `json:"total"`
}

// NewInvoiceUpdatedEvent creates a new InvoiceUpdatedEvent
func NewInvoiceUpdatedEvent(inv *Invoice) *InvoiceUpdatedEvent {
	return &InvoiceUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceUpdated, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		Total:           inv.Total,
	}
}

// InvoiceStatusChangedEvent is raised on every invoice lifecycle transition
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID     `json:"invoice_id"`
	FromStatus InvoiceStatus `json:"from_status"`
	ToStatus   InvoiceStatus `json:"to_status"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, from InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		FromStatus:      from,
		ToStatus:        inv.Status,
	}
}

// PaymentRecordedEvent is raised when funds are recorded against an invoice
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(inv *Invoice, p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, inv.TenantID),
		PaymentID:       p.ID,
		InvoiceID:       inv.ID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}
