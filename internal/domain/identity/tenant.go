package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionStatus represents the subscription state of a tenant
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionTrial    SubscriptionStatus = "trial"
)

// IsValid checks if the status is a valid SubscriptionStatus
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionActive, SubscriptionInactive, SubscriptionTrial:
		return true
	}
	return false
}

// Tenant is the organization owning customers, quotes, invoices and payments.
// Its ID equals the ID of the user that signed up for it.
type Tenant struct {
	shared.BaseAggregateRoot
	Name               string
	Email              string
	Phone              string
	Address            string
	TaxID              string // VAT registration number printed on invoices
	SubscriptionStatus SubscriptionStatus
}

// NewTenant provisions a tenant for a newly registered account
func NewTenant(id uuid.UUID, name, email string) (*Tenant, error) {
	if id == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT_ID", "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(email)
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	tenant := &Tenant{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Email:              strings.ToLower(strings.TrimSpace(email)),
		SubscriptionStatus: SubscriptionTrial,
	}
	tenant.ID = id

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// UpdateProfile replaces the seller details printed on documents
func (t *Tenant) UpdateProfile(name, email, phone, address, taxID string) error {
	name = strings.TrimSpace(name)
	if err := validateTenantName(name); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	taxID = strings.TrimSpace(taxID)
	if len(taxID) > 50 {
		return shared.NewDomainError("INVALID_TAX_ID", "Tax ID cannot exceed 50 characters")
	}

	t.Name = name
	t.Email = strings.ToLower(strings.TrimSpace(email))
	t.Phone = strings.TrimSpace(phone)
	t.Address = strings.TrimSpace(address)
	t.TaxID = taxID
	t.UpdatedAt = time.Now()

	t.AddDomainEvent(NewTenantUpdatedEvent(t))

	return nil
}

// SetSubscriptionStatus records the subscription state; billing itself is external
func (t *Tenant) SetSubscriptionStatus(status SubscriptionStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_SUBSCRIPTION_STATUS", "Invalid subscription status")
	}
	t.SubscriptionStatus = status
	t.UpdatedAt = time.Now()
	return nil
}

// HasTaxID reports whether the tenant can issue compliance codes
func (t *Tenant) HasTaxID() bool {
	return t.TaxID != ""
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
