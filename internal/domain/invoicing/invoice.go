package invoicing

import (
	"fmt"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTerm is the due date offset applied to new invoices
const DefaultPaymentTerm = 30 * 24 * time.Hour

// Template selects the document layout used to render an invoice
type Template string

const (
	TemplateEnglish Template = "english"
	TemplateArabic  Template = "arabic"
)

// IsValid checks if the template is known
func (t Template) IsValid() bool {
	return t == TemplateEnglish || t == TemplateArabic
}

// String returns the string representation of Template
func (t Template) String() string {
	return string(t)
}

// Invoice is a billable document.
// Its total is fixed once it leaves draft; payments never change it.
type Invoice struct {
	shared.TenantAggregateRoot
	Pricing
	InvoiceNumber string
	QuoteID       *uuid.UUID // Originating quote, when converted
	CustomerID    *uuid.UUID
	Client        Client
	Status        InvoiceStatus
	DueDate       time.Time
	Notes         string
	Template      Template
	IncludeQR     bool
	Payments      []Payment
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
}

// NewInvoice creates a new draft invoice due after the default payment term
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, client Client, taxRate decimal.Decimal) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	pricing, err := newPricing(taxRate)
	if err != nil {
		return nil, err
	}

	invoice := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Pricing:             pricing,
		InvoiceNumber:       invoiceNumber,
		Client:              client,
		Status:              InvoiceStatusDraft,
		Template:            TemplateEnglish,
		Payments:            make([]Payment, 0),
	}
	invoice.DueDate = invoice.CreatedAt.Add(DefaultPaymentTerm)

	invoice.AddDomainEvent(NewInvoiceCreatedEvent(invoice))

	return invoice, nil
}

func (i *Invoice) ensureEditable(action string) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewStateError(fmt.Sprintf("Cannot %s an invoice in %s status", action, i.Status))
	}
	return nil
}

// AddItem appends a line item
func (i *Invoice) AddItem(item LineItem) error {
	if err := i.ensureEditable("add items to"); err != nil {
		return err
	}
	i.addItem(item)
	i.touch()
	return nil
}

// ReplaceItems swaps the whole item list
func (i *Invoice) ReplaceItems(items []LineItem) error {
	if err := i.ensureEditable("change items of"); err != nil {
		return err
	}
	i.replaceItems(items)
	i.touch()
	return nil
}

// UpdateItemQuantity changes one item's quantity
func (i *Invoice) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if err := i.ensureEditable("update items of"); err != nil {
		return err
	}
	if err := i.updateItem(itemID, func(li *LineItem) error { return li.SetQuantity(quantity) }); err != nil {
		return err
	}
	i.touch()
	return nil
}

// UpdateItemPrice changes one item's unit price
func (i *Invoice) UpdateItemPrice(itemID uuid.UUID, unitPrice decimal.Decimal) error {
	if err := i.ensureEditable("update items of"); err != nil {
		return err
	}
	if err := i.updateItem(itemID, func(li *LineItem) error { return li.SetUnitPrice(unitPrice) }); err != nil {
		return err
	}
	i.touch()
	return nil
}

// RemoveItem drops a line item
func (i *Invoice) RemoveItem(itemID uuid.UUID) error {
	if err := i.ensureEditable("remove items from"); err != nil {
		return err
	}
	if err := i.removeItem(itemID); err != nil {
		return err
	}
	i.touch()
	return nil
}

// SetTaxRate changes the tax percentage
func (i *Invoice) SetTaxRate(rate decimal.Decimal) error {
	if err := i.ensureEditable("change the tax rate of"); err != nil {
		return err
	}
	if err := i.setTaxRate(rate); err != nil {
		return err
	}
	i.touch()
	return nil
}

// SetClient replaces the addressee
func (i *Invoice) SetClient(client Client, customerID *uuid.UUID) error {
	if err := i.ensureEditable("change the client of"); err != nil {
		return err
	}
	if err := client.Validate(); err != nil {
		return err
	}
	i.Client = client
	i.CustomerID = customerID
	i.touch()
	return nil
}

// SetDueDate changes the due date
func (i *Invoice) SetDueDate(due time.Time) error {
	if i.Status.IsTerminal() {
		return shared.NewStateError(fmt.Sprintf("Cannot change due date of an invoice in %s status", i.Status))
	}
	if due.IsZero() {
		return shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}
	i.DueDate = due
	i.touch()
	return nil
}

// SetPresentation chooses the rendering template and whether to show the compliance code
func (i *Invoice) SetPresentation(template Template, includeQR bool) error {
	if !template.IsValid() {
		return shared.NewDomainError("INVALID_TEMPLATE", fmt.Sprintf("Unknown template %q", template))
	}
	i.Template = template
	i.IncludeQR = includeQR
	i.touch()
	return nil
}

// SetNotes sets free-form notes
func (i *Invoice) SetNotes(notes string) {
	i.Notes = notes
	i.touch()
}

// ChangeStatus moves the invoice along its lifecycle.
// Unknown statuses are a validation error, disallowed moves a state error.
func (i *Invoice) ChangeStatus(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", target))
	}
	return i.transition(target, time.Now())
}

func (i *Invoice) transition(target InvoiceStatus, now time.Time) error {
	next, err := fire(i.Status, target, invoiceTransitions)
	if err != nil {
		return shared.NewStateError(fmt.Sprintf("Cannot move invoice from %s to %s", i.Status, target))
	}

	from := i.Status
	i.Status = next
	switch next {
	case InvoiceStatusSent:
		i.SentAt = &now
	case InvoiceStatusPaid:
		i.PaidAt = &now
	case InvoiceStatusCancelled:
		i.CancelledAt = &now
	}
	i.Touch(now)

	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, from))
	return nil
}

// MarkOverdue moves an unpaid invoice past its due date to overdue.
// It returns false when the invoice is not due yet or cannot become overdue.
func (i *Invoice) MarkOverdue(now time.Time) bool {
	if !now.After(i.DueDate) || !i.Status.CanTransitionTo(InvoiceStatusOverdue) {
		return false
	}
	return i.transition(InvoiceStatusOverdue, now) == nil
}

// RecordPayment registers funds received against the invoice.
// Status and total are left unchanged; over-payment is not prevented.
func (i *Invoice) RecordPayment(amount decimal.Decimal, paidOn time.Time, method, reference, notes string) (*Payment, error) {
	if i.Status == InvoiceStatusCancelled {
		return nil, shared.NewStateError("Cannot record a payment against a cancelled invoice")
	}
	payment, err := NewPayment(i.TenantID, i.ID, amount, paidOn, method)
	if err != nil {
		return nil, err
	}
	payment.Reference = reference
	payment.Notes = notes

	i.Payments = append(i.Payments, *payment)
	i.AddDomainEvent(NewPaymentRecordedEvent(i, payment))

	return payment, nil
}

// AmountPaid sums the recorded payments
func (i *Invoice) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// BalanceDue returns total minus payments; negative when over-paid
func (i *Invoice) BalanceDue() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid())
}

// IsDraft returns true if the invoice is still editable
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// IsOverdueAt reports whether the invoice is unpaid past its due date
func (i *Invoice) IsOverdueAt(now time.Time) bool {
	return !i.Status.IsTerminal() && now.After(i.DueDate)
}

// IssueDate is the date the invoice was created
func (i *Invoice) IssueDate() time.Time {
	return i.CreatedAt
}

func (i *Invoice) touch() {
	i.Touch(time.Now())
	i.AddDomainEvent(NewInvoiceUpdatedEvent(i))
}
