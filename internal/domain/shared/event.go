package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about a tenant's aggregate. Live collections use the
// aggregate type and tenant to decide which subscribers to refresh.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// BaseDomainEvent implements DomainEvent; concrete events embed it and add their payload
type BaseDomainEvent struct {
	Meta EventMeta `json:"meta"`
}

// EventMeta identifies an event and the aggregate that raised it
type EventMeta struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	At            time.Time `json:"at"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	TenantID      uuid.UUID `json:"tenant_id"`
}

// NewBaseDomainEvent stamps a new event with an ID and the current time
func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{Meta: EventMeta{
		ID:            uuid.New(),
		Type:          eventType,
		At:            time.Now(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		TenantID:      tenantID,
	}}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.Meta.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Meta.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.Meta.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Meta.AggregateID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Meta.AggregateType }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Meta.TenantID }

// EventHandler consumes published events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types to deliver; nil means every event
	EventTypes() []string
}

// EventPublisher is what application services publish through
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus delivers published events to subscribed handlers
type EventBus interface {
	EventPublisher
	// Subscribe registers handler for eventTypes, or for its own EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
