package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch records a modification time
func (e *BaseEntity) Touch(now time.Time) {
	e.UpdatedAt = now
}

// BaseAggregateRoot is an entity that queues domain events until its service publishes them.
// Version backs optimistic locking and starts at 1.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot returns a fresh root with a new ID
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Version:    1,
	}
}

// GetVersion is the optimistic-lock version
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// AddDomainEvent queues an event
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the queued events, oldest first
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.pending }

// ClearDomainEvents drops the queue after publishing
func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

// TenantAggregateRoot is owned by exactly one tenant.
// Quotes, invoices, payments, contacts and catalog entries all are.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID
}

// NewTenantAggregateRoot returns a fresh root owned by tenantID
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), TenantID: tenantID}
}
