package partner

import (
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeCustomer = "Customer"
	AggregateTypeSupplier = "Supplier"
)

// Event type constants
const (
	EventTypeCustomerCreated = "CustomerCreated"
	EventTypeCustomerUpdated = "CustomerUpdated"
	EventTypeCustomerDeleted = "CustomerDeleted"
	EventTypeSupplierCreated = "SupplierCreated"
	EventTypeSupplierUpdated = "SupplierUpdated"
	EventTypeSupplierDeleted = "SupplierDeleted"
)

// ContactEvent is published when a customer or supplier record changes
type ContactEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewContactEvent creates a new ContactEvent
func NewContactEvent(eventType, aggType string, id, tenantID uuid.UUID, name string) *ContactEvent {
	return &ContactEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggType, id, tenantID),
		Name:            name,
	}
}
