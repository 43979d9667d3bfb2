package invoicing

import (
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quote is a priced proposal to a client.
// Items and tax rate can only change while the quote is a draft;
// once converted the quote accepts no further changes.
type Quote struct {
	shared.TenantAggregateRoot
	Pricing
	QuoteNumber string
	CustomerID  *uuid.UUID
	Client      Client
	Status      QuoteStatus
	ValidUntil  *time.Time
	Notes       string
	SentAt      *time.Time
	ConvertedAt *time.Time
	InvoiceID   *uuid.UUID // Invoice produced by conversion
}

// NewQuote creates a new draft quote
func NewQuote(tenantID uuid.UUID, quoteNumber string, client Client, taxRate decimal.Decimal) (*Quote, error) {
	if quoteNumber == "" {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot be empty")
	}
	if len(quoteNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_QUOTE_NUMBER", "Quote number cannot exceed 50 characters")
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	pricing, err := newPricing(taxRate)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Pricing:             pricing,
		QuoteNumber:         quoteNumber,
		Client:              client,
		Status:              QuoteStatusDraft,
	}

	quote.AddDomainEvent(NewQuoteCreatedEvent(quote))

	return quote, nil
}

func (q *Quote) ensureEditable(action string) error {
	if q.Status != QuoteStatusDraft {
		return shared.NewStateError(fmt.Sprintf("Cannot %s a quote in %s status", action, q.Status))
	}
	return nil
}

// AddItem appends a line item
func (q *Quote) AddItem(item LineItem) error {
	if err := q.ensureEditable("add items to"); err != nil {
		return err
	}
	q.addItem(item)
	q.touch()
	return nil
}

// ReplaceItems swaps the whole item list, as submitted by an edit form
func (q *Quote) ReplaceItems(items []LineItem) error {
	if err := q.ensureEditable("change items of"); err != nil {
		return err
	}
	q.replaceItems(items)
	q.touch()
	return nil
}

// UpdateItemQuantity changes one item's quantity
func (q *Quote) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if err := q.ensureEditable("update items of"); err != nil {
		return err
	}
	if err := q.updateItem(itemID, func(i *LineItem) error { return i.SetQuantity(quantity) }); err != nil {
		return err
	}
	q.touch()
	return nil
}

// UpdateItemPrice changes one item's unit price
func (q *Quote) UpdateItemPrice(itemID uuid.UUID, unitPrice decimal.Decimal) error {
	if err := q.ensureEditable("update items of"); err != nil {
		return err
	}
	if err := q.updateItem(itemID, func(i *LineItem) error { return i.SetUnitPrice(unitPrice) }); err != nil {
		return err
	}
	q.touch()
	return nil
}

// RemoveItem drops a line item
func (q *Quote) RemoveItem(itemID uuid.UUID) error {
	if err := q.ensureEditable("remove items from"); err != nil {
		return err
	}
	if err := q.removeItem(itemID); err != nil {
		return err
	}
	q.touch()
	return nil
}

// SetTaxRate changes the tax percentage
func (q *Quote) SetTaxRate(rate decimal.Decimal) error {
	if err := q.ensureEditable("change the tax rate of"); err != nil {
		return err
	}
	if err := q.setTaxRate(rate); err != nil {
		return err
	}
	q.touch()
	return nil
}

// SetClient replaces the addressee
func (q *Quote) SetClient(client Client, customerID *uuid.UUID) error {
	if err := q.ensureEditable("change the client of"); err != nil {
		return err
	}
	if err := client.Validate(); err != nil {
		return err
	}
	q.Client = client
	q.CustomerID = customerID
	q.touch()
	return nil
}

// SetValidUntil sets the validity deadline
func (q *Quote) SetValidUntil(deadline *time.Time) error {
	if q.Status == QuoteStatusConverted {
		return shared.NewStateError("Cannot change a converted quote")
	}
	q.ValidUntil = deadline
	q.touch()
	return nil
}

// SetNotes sets free-form notes
func (q *Quote) SetNotes(notes string) error {
	if q.Status == QuoteStatusConverted {
		return shared.NewStateError("Cannot change a converted quote")
	}
	q.Notes = notes
	q.touch()
	return nil
}

// ChangeStatus moves the quote along its lifecycle.
// Conversion is not a plain status change; use ConvertToInvoice.
func (q *Quote) ChangeStatus(target QuoteStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown quote status %q", target))
	}
	if target == QuoteStatusConverted {
		return shared.NewStateError("Use conversion to turn a quote into an invoice")
	}
	return q.transition(target, time.Now())
}

func (q *Quote) transition(target QuoteStatus, now time.Time) error {
	next, err := fire(q.Status, target, quoteTransitions)
	if err != nil {
		return shared.NewStateError(fmt.Sprintf("Cannot move quote from %s to %s", q.Status, target))
	}

	from := q.Status
	q.Status = next
	switch next {
	case QuoteStatusSent:
		q.SentAt = &now
	case QuoteStatusConverted:
		q.ConvertedAt = &now
	}
	q.Touch(now)

	q.AddDomainEvent(NewQuoteStatusChangedEvent(q, from))
	return nil
}

// IsDraft returns true if the quote is still editable
func (q *Quote) IsDraft() bool {
	return q.Status == QuoteStatusDraft
}

// IsConverted returns true once an invoice was produced from the quote
func (q *Quote) IsConverted() bool {
	return q.Status == QuoteStatusConverted
}

// IsExpiredAt reports whether the validity deadline has passed
func (q *Quote) IsExpiredAt(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil)
}

func (q *Quote) touch() {
	q.Touch(time.Now())
	q.AddDomainEvent(NewQuoteUpdatedEvent(q))
}
