package identity

import (
	"github.com/erp/invoicing/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeTenant = "Tenant"
	AggregateTypeUser   = "User"
)

// Event type constants
const (
	EventTypeTenantCreated  = "TenantCreated"
	EventTypeTenantUpdated  = "TenantUpdated"
	EventTypeUserRegistered = "UserRegistered"
	EventTypePasswordReset  = "UserPasswordReset"
)

// TenantCreatedEvent is published when a new tenant is provisioned
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(tenant *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Name:            tenant.Name,
		Email:           tenant.Email,
	}
}

// TenantUpdatedEvent is published when the seller profile changes
type TenantUpdatedEvent struct {
	shared.BaseDomainEvent
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

// NewTenantUpdatedEvent creates a new TenantUpdatedEvent
func NewTenantUpdatedEvent(tenant *Tenant) *TenantUpdatedEvent {
	return &TenantUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantUpdated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Name:            tenant.Name,
		TaxID:           tenant.TaxID,
	}
}

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email    string       `json:"email"`
	Provider AuthProvider `json:"provider"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID, user.TenantID),
		Email:           user.Email,
		Provider:        user.Provider,
	}
}

// PasswordResetEvent is published when a password was replaced through a reset link
type PasswordResetEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewPasswordResetEvent creates a new PasswordResetEvent
func NewPasswordResetEvent(user *User) *PasswordResetEvent {
	return &PasswordResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePasswordReset, AggregateTypeUser, user.ID, user.TenantID),
		Email:           user.Email,
	}
}
