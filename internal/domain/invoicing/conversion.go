package invoicing

import (
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
)

// ConvertToInvoice turns a quote into a new draft invoice.
//
// The quote is marked converted and the invoice receives a deep copy of its
// items and the same totals. A quote converts at most once: a second call
// fails with an INVALID_STATE error. Callers must persist both aggregates in
// one transaction (see QuoteRepository.SaveConversion).
func ConvertToInvoice(quote *Quote, invoiceNumber string, now time.Time) (*Invoice, error) {
	if quote == nil {
		return nil, shared.NewDomainError("INVALID_QUOTE", "Quote is required")
	}
	if quote.IsConverted() {
		return nil, shared.NewStateError(fmt.Sprintf("Quote %s has already been converted", quote.QuoteNumber))
	}
	if !quote.Status.CanTransitionTo(QuoteStatusConverted) {
		return nil, shared.NewStateError(fmt.Sprintf("Cannot convert a quote in %s status", quote.Status))
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}

	quoteID := quote.ID
	invoice := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(quote.TenantID),
		Pricing:             copyPricing(quote.Pricing),
		InvoiceNumber:       invoiceNumber,
		QuoteID:             &quoteID,
		Client: Client{
			Name:    quote.Client.Name,
			Email:   quote.Client.Email,
			Address: quote.Client.Address,
		},
		Status:    InvoiceStatusDraft,
		DueDate:   now.Add(DefaultPaymentTerm),
		Notes:     quote.Notes,
		Template:  TemplateEnglish,
		IncludeQR: false,
		Payments:  make([]Payment, 0),
	}
	if quote.CustomerID != nil {
		customerID := *quote.CustomerID
		invoice.CustomerID = &customerID
	}
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	if err := quote.transition(QuoteStatusConverted, now); err != nil {
		return nil, err
	}
	invoiceID := invoice.ID
	quote.InvoiceID = &invoiceID

	invoice.AddDomainEvent(NewInvoiceCreatedEvent(invoice))
	quote.AddDomainEvent(NewQuoteConvertedEvent(quote, invoice))

	return invoice, nil
}
