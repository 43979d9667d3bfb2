package invoicing

import (
	"fmt"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/qmuntal/stateless"
)

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusRejected  QuoteStatus = "rejected"
	QuoteStatusExpired   QuoteStatus = "expired"
	QuoteStatusConverted QuoteStatus = "converted"
)

// AllQuoteStatuses lists every quote status in lifecycle order
var AllQuoteStatuses = []QuoteStatus{
	QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted,
	QuoteStatusRejected, QuoteStatusExpired, QuoteStatusConverted,
}

// quoteTransitions is the quote state machine; states without an entry are terminal.
// Every status short of converted may still be converted into an invoice.
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:    {QuoteStatusSent, QuoteStatusConverted},
	QuoteStatusSent:     {QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusConverted},
	QuoteStatusAccepted: {QuoteStatusConverted},
	QuoteStatusRejected: {QuoteStatusConverted},
	QuoteStatusExpired:  {QuoteStatusConverted},
}

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	for _, known := range AllQuoteStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions leave the status
func (s QuoteStatus) IsTerminal() bool {
	return len(quoteTransitions[s]) == 0
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	_, err := fire(s, target, quoteTransitions)
	return err == nil
}

// AllowedTransitions returns the statuses reachable in one step
func (s QuoteStatus) AllowedTransitions() []QuoteStatus {
	return append([]QuoteStatus(nil), quoteTransitions[s]...)
}

// ParseQuoteStatus converts user input into a QuoteStatus
func ParseQuoteStatus(raw string) (QuoteStatus, error) {
	s := QuoteStatus(raw)
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown quote status %q", raw))
	}
	return s, nil
}

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// AllInvoiceStatuses lists every invoice status
var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
	InvoiceStatusOverdue, InvoiceStatusCancelled,
}

// invoiceTransitions is the invoice state machine; paid and cancelled are terminal
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	for _, known := range AllInvoiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions leave the status
func (s InvoiceStatus) IsTerminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	_, err := fire(s, target, invoiceTransitions)
	return err == nil
}

// AllowedTransitions returns the statuses reachable in one step
func (s InvoiceStatus) AllowedTransitions() []InvoiceStatus {
	return append([]InvoiceStatus(nil), invoiceTransitions[s]...)
}

// ParseInvoiceStatus converts user input into an InvoiceStatus
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(raw)
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", raw))
	}
	return s, nil
}

// newMachine builds a state machine positioned at current.
// Each permitted target status doubles as the trigger that leads to it.
func newMachine[S comparable](current S, table map[S][]S) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)
	for from, targets := range table {
		cfg := machine.Configure(from)
		for _, to := range targets {
			cfg.Permit(to, to)
		}
	}
	return machine
}

// fire runs one transition and returns the resulting status
func fire[S comparable](current, target S, table map[S][]S) (S, error) {
	machine := newMachine(current, table)
	if err := machine.Fire(target); err != nil {
		return current, err
	}
	next, ok := machine.MustState().(S)
	if !ok {
		return current, fmt.Errorf("unexpected state type %T", machine.MustState())
	}
	return next, nil
}
