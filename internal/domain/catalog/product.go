package catalog

import (
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offering holds the fields shared by catalog products and services
type Offering struct {
	Name        string
	Description string
	Category    string
}

func newOffering(name, description, category string) (Offering, error) {
	o := Offering{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Category:    strings.TrimSpace(category),
	}
	if o.Name == "" {
		return Offering{}, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(o.Name) > 200 {
		return Offering{}, shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if len(o.Category) > 100 {
		return Offering{}, shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 100 characters")
	}
	return o, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}

// Product is a sellable good with a unit price
type Product struct {
	shared.TenantAggregateRoot
	Offering
	Price decimal.Decimal
}

// NewProduct creates a new product
func NewProduct(tenantID uuid.UUID, name, description, category string, price decimal.Decimal) (*Product, error) {
	offering, err := newOffering(name, description, category)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	product := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Offering:            offering,
		Price:               price,
	}

	product.AddDomainEvent(NewCatalogEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID, tenantID, offering.Name, price))

	return product, nil
}

// Update updates the product's information and price
func (p *Product) Update(name, description, category string, price decimal.Decimal) error {
	offering, err := newOffering(name, description, category)
	if err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}

	p.Offering = offering
	p.Price = price
	p.UpdatedAt = time.Now()

	p.AddDomainEvent(NewCatalogEvent(EventTypeProductUpdated, AggregateTypeProduct, p.ID, p.TenantID, p.Name, price))

	return nil
}

// MarkDeleted records the deletion event
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewCatalogEvent(EventTypeProductDeleted, AggregateTypeProduct, p.ID, p.TenantID, p.Name, p.Price))
}
