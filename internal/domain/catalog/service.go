package catalog

import (
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is billable work charged at a rate per unit (hour, day, visit)
type Service struct {
	shared.TenantAggregateRoot
	Offering
	Rate decimal.Decimal
}

// NewService creates a new service
func NewService(tenantID uuid.UUID, name, description, category string, rate decimal.Decimal) (*Service, error) {
	offering, err := newOffering(name, description, category)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(rate); err != nil {
		return nil, err
	}

	service := &Service{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Offering:            offering,
		Rate:                rate,
	}

	service.AddDomainEvent(NewCatalogEvent(EventTypeServiceCreated, AggregateTypeService, service.ID, tenantID, offering.Name, rate))

	return service, nil
}

// Update updates the service's information and rate
func (s *Service) Update(name, description, category string, rate decimal.Decimal) error {
	offering, err := newOffering(name, description, category)
	if err != nil {
		return err
	}
	if err := validatePrice(rate); err != nil {
		return err
	}

	s.Offering = offering
	s.Rate = rate
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewCatalogEvent(EventTypeServiceUpdated, AggregateTypeService, s.ID, s.TenantID, s.Name, rate))

	return nil
}

// MarkDeleted records the deletion event
func (s *Service) MarkDeleted() {
	s.AddDomainEvent(NewCatalogEvent(EventTypeServiceDeleted, AggregateTypeService, s.ID, s.TenantID, s.Name, s.Rate))
}
