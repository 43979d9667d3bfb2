package invoicing

import (
	"context"

	"github.com/erp/invoicing/internal/domain/catalog"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentResolver turns form input into domain line items and clients,
// filling blanks from the tenant's catalog and customer records.
type DocumentResolver struct {
	productRepo  catalog.ProductRepository
	serviceRepo  catalog.ServiceRepository
	customerRepo partner.CustomerRepository
}

// NewDocumentResolver creates a new DocumentResolver; any repository may be nil
func NewDocumentResolver(
	productRepo catalog.ProductRepository,
	serviceRepo catalog.ServiceRepository,
	customerRepo partner.CustomerRepository,
) *DocumentResolver {
	return &DocumentResolver{
		productRepo:  productRepo,
		serviceRepo:  serviceRepo,
		customerRepo: customerRepo,
	}
}

// Items builds line items in submission order.
// Missing or non-numeric quantities and prices count as zero.
func (r *DocumentResolver) Items(ctx context.Context, tenantID uuid.UUID, inputs []LineItemInput) ([]invoicing.LineItem, error) {
	items := make([]invoicing.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := r.item(ctx, tenantID, in)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (r *DocumentResolver) item(ctx context.Context, tenantID uuid.UUID, in LineItemInput) (*invoicing.LineItem, error) {
	kind := invoicing.LineItemKind(in.Kind)
	if kind == "" {
		kind = invoicing.LineItemKindProduct
	}

	name, description := in.Name, in.Description
	price := in.UnitPrice
	if in.CatalogRef != nil {
		entryName, entryDesc, entryPrice, err := r.catalogEntry(ctx, tenantID, kind, *in.CatalogRef)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = entryName
		}
		if description == "" {
			description = entryDesc
		}
		if !price.Valid {
			price = NewAmount(entryPrice)
		}
	}

	item, err := invoicing.NewLineItem(kind, name, in.Quantity.OrZero(), price.OrZero())
	if err != nil {
		return nil, err
	}
	item.SetDescription(description)
	if in.CatalogRef != nil {
		item.LinkCatalog(*in.CatalogRef)
	}
	return item, nil
}

func (r *DocumentResolver) catalogEntry(ctx context.Context, tenantID uuid.UUID, kind invoicing.LineItemKind, ref uuid.UUID) (string, string, decimal.Decimal, error) {
	switch kind {
	case invoicing.LineItemKindService:
		if r.serviceRepo == nil {
			return "", "", decimal.Zero, shared.NewDomainError("INVALID_CATALOG_REF", "Service catalog is not available")
		}
		svc, err := r.serviceRepo.FindByIDForTenant(ctx, tenantID, ref)
		if err != nil {
			return "", "", decimal.Zero, err
		}
		return svc.Name, svc.Description, svc.Rate, nil
	default:
		if r.productRepo == nil {
			return "", "", decimal.Zero, shared.NewDomainError("INVALID_CATALOG_REF", "Product catalog is not available")
		}
		product, err := r.productRepo.FindByIDForTenant(ctx, tenantID, ref)
		if err != nil {
			return "", "", decimal.Zero, err
		}
		return product.Name, product.Description, product.Price, nil
	}
}

// Client builds the addressee, prefilling blank fields from the referenced customer
func (r *DocumentResolver) Client(ctx context.Context, tenantID uuid.UUID, in ClientInput) (invoicing.Client, *uuid.UUID, error) {
	name, email, address, taxID := in.Name, in.Email, in.Address, in.TaxID

	var customerID *uuid.UUID
	if in.CustomerID != nil {
		if r.customerRepo == nil {
			return invoicing.Client{}, nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer records are not available")
		}
		customer, err := r.customerRepo.FindByIDForTenant(ctx, tenantID, *in.CustomerID)
		if err != nil {
			return invoicing.Client{}, nil, err
		}
		if name == "" {
			name = customer.Name
		}
		if email == "" {
			email = customer.Email
		}
		if address == "" {
			address = customer.Address
		}
		if taxID == "" {
			taxID = customer.TaxID
		}
		id := customer.ID
		customerID = &id
	}

	client, err := invoicing.NewClient(name, email, address, taxID)
	if err != nil {
		return invoicing.Client{}, nil, err
	}
	return client, customerID, nil
}

// eventSource is an aggregate holding pending domain events
type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func publishEvents(ctx context.Context, eventPublisher shared.EventPublisher, aggregates ...eventSource) error {
	if eventPublisher == nil {
		for _, agg := range aggregates {
			agg.ClearDomainEvents()
		}
		return nil
	}
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if len(events) == 0 {
		return nil
	}
	return eventPublisher.Publish(ctx, events...)
}
