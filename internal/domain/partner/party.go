package partner

import (
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// Role tells customers from suppliers; it doubles as the aggregate type of events
type Role string

const (
	RoleCustomer Role = AggregateTypeCustomer
	RoleSupplier Role = AggregateTypeSupplier
)

// Party is a tenant's business contact in one role
type Party struct {
	shared.TenantAggregateRoot
	Contact
	Notes string
}

// Customer is a client the tenant quotes and invoices
type Customer struct{ Party }

// Supplier is a vendor the tenant buys from
type Supplier struct{ Party }

func newParty(role Role, tenantID uuid.UUID, contact Contact) (Party, error) {
	if err := contact.validate(); err != nil {
		return Party{}, err
	}
	p := Party{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID), Contact: contact}
	p.raise(role, "Created", contact.Name)
	return p, nil
}

func (p *Party) update(role Role, contact Contact, notes string) error {
	if err := contact.validate(); err != nil {
		return err
	}
	p.Contact = contact
	p.Notes = notes
	p.Touch(time.Now())
	p.raise(role, "Updated", contact.Name)
	return nil
}

// raise queues e.g. "CustomerUpdated" for role RoleCustomer
func (p *Party) raise(role Role, action, name string) {
	p.AddDomainEvent(NewContactEvent(string(role)+action, string(role), p.ID, p.TenantID, name))
}

// Profile exposes the shared party fields of a Customer or Supplier
func (p *Party) Profile() *Party { return p }

func NewCustomer(tenantID uuid.UUID, contact Contact) (*Customer, error) {
	p, err := newParty(RoleCustomer, tenantID, contact)
	if err != nil {
		return nil, err
	}
	return &Customer{p}, nil
}

// Update replaces contact details and notes
func (c *Customer) Update(contact Contact, notes string) error {
	return c.update(RoleCustomer, contact, notes)
}

// MarkDeleted queues the deletion event; the row is removed by the repository
func (c *Customer) MarkDeleted() { c.raise(RoleCustomer, "Deleted", c.Name) }

func NewSupplier(tenantID uuid.UUID, contact Contact) (*Supplier, error) {
	p, err := newParty(RoleSupplier, tenantID, contact)
	if err != nil {
		return nil, err
	}
	return &Supplier{p}, nil
}

// Update replaces contact details and notes
func (s *Supplier) Update(contact Contact, notes string) error {
	return s.update(RoleSupplier, contact, notes)
}

// MarkDeleted queues the deletion event; the row is removed by the repository
func (s *Supplier) MarkDeleted() { s.raise(RoleSupplier, "Deleted", s.Name) }
