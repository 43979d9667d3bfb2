package catalog

import (
	"context"

	"github.com/erp/invoicing/internal/domain/catalog"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// offering is satisfied by *catalog.Product and *catalog.Service
type offering[T any] interface {
	*T
	Update(name, description, category string, price decimal.Decimal) error
	MarkDeleted()
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// shelf is the CRUD flow shared by products and services.
// Quote and invoice lines copy prices, so updates never reach issued documents.
type shelf[T any, P offering[T]] struct {
	repo        shared.TenantRepository[T]
	construct   func(tenantID uuid.UUID, name, description, category string, price decimal.Decimal) (*T, error)
	respond     func(*T) OfferingResponse
	priceColumn string
	publisher   shared.EventPublisher
}

// SetEventPublisher sets the event publisher for live updates
func (s *shelf[T, P]) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

func (s *shelf[T, P]) Create(ctx context.Context, tenantID uuid.UUID, req OfferingRequest) (*OfferingResponse, error) {
	item, err := s.construct(tenantID, req.Name, req.Description, req.Category, req.Price)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return s.commit(ctx, item), nil
}

func (s *shelf[T, P]) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*OfferingResponse, error) {
	item, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := s.respond(item)
	return &resp, nil
}

func (s *shelf[T, P]) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]OfferingResponse, int64, error) {
	domainFilter := filter.toDomain(s.priceColumn)

	items, err := s.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]OfferingResponse, len(items))
	for i := range items {
		out[i] = s.respond(&items[i])
	}
	return out, total, nil
}

func (s *shelf[T, P]) Update(ctx context.Context, tenantID, id uuid.UUID, req OfferingRequest) (*OfferingResponse, error) {
	item, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := P(item).Update(req.Name, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	return s.commit(ctx, item), nil
}

func (s *shelf[T, P]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	item, err := s.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	P(item).MarkDeleted()
	if err := s.repo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	s.commit(ctx, item)
	return nil
}

// commit publishes the queued events of a persisted item and renders it
func (s *shelf[T, P]) commit(ctx context.Context, item *T) *OfferingResponse {
	agg := P(item)
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, agg.GetDomainEvents()...)
	}
	agg.ClearDomainEvents()
	resp := s.respond(item)
	return &resp
}

// ProductService manages goods sold at a unit price
type ProductService struct {
	shelf[catalog.Product, *catalog.Product]
}

func NewProductService(repo catalog.ProductRepository) *ProductService {
	return &ProductService{shelf[catalog.Product, *catalog.Product]{
		repo:        repo,
		construct:   catalog.NewProduct,
		respond:     ToProductResponse,
		priceColumn: "price",
	}}
}

// ServiceService manages billable work charged at a rate
type ServiceService struct {
	shelf[catalog.Service, *catalog.Service]
}

func NewServiceService(repo catalog.ServiceRepository) *ServiceService {
	return &ServiceService{shelf[catalog.Service, *catalog.Service]{
		repo:        repo,
		construct:   catalog.NewService,
		respond:     ToServiceResponse,
		priceColumn: "rate",
	}}
}
