package catalog

import (
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeProduct = "Product"
	AggregateTypeService = "Service"
)

// Event type constants
const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductUpdated = "ProductUpdated"
	EventTypeProductDeleted = "ProductDeleted"
	EventTypeServiceCreated = "ServiceCreated"
	EventTypeServiceUpdated = "ServiceUpdated"
	EventTypeServiceDeleted = "ServiceDeleted"
)

// CatalogEvent is published when a product or service changes
type CatalogEvent struct {
	shared.BaseDomainEvent
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// NewCatalogEvent creates a new CatalogEvent
func NewCatalogEvent(eventType, aggType string, id, tenantID uuid.UUID, name string, price decimal.Decimal) *CatalogEvent {
	return &CatalogEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggType, id, tenantID),
		Name:            name,
		Price:           price,
	}
}
