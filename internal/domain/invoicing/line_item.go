package invoicing

import (
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemKind distinguishes catalog products from services
type LineItemKind string

const (
	LineItemKindProduct LineItemKind = "product"
	LineItemKindService LineItemKind = "service"
)

// IsValid checks if the kind is a known LineItemKind
func (k LineItemKind) IsValid() bool {
	return k == LineItemKindProduct || k == LineItemKindService
}

// String returns the string representation of LineItemKind
func (k LineItemKind) String() string {
	return string(k)
}

// LineItem is one priced row on a quote or invoice.
// Total always equals Quantity × UnitPrice; it is never edited on its own.
type LineItem struct {
	ID          uuid.UUID
	Kind        LineItemKind
	CatalogRef  *uuid.UUID // Product or service the row was seeded from
	Name        string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// NewLineItem creates a line item and derives its total
func NewLineItem(kind LineItemKind, name string, quantity, unitPrice decimal.Decimal) (*LineItem, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_ITEM_KIND", "Item kind must be product or service")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &LineItem{
		ID:        uuid.New(),
		Kind:      kind,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     quantity.Mul(unitPrice),
	}, nil
}

// SetQuantity updates the quantity and recomputes the item total
func (i *LineItem) SetQuantity(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	i.Quantity = quantity
	i.Total = quantity.Mul(i.UnitPrice)
	return nil
}

// SetUnitPrice updates the unit price and recomputes the item total
func (i *LineItem) SetUnitPrice(unitPrice decimal.Decimal) error {
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	i.UnitPrice = unitPrice
	i.Total = i.Quantity.Mul(unitPrice)
	return nil
}

// Rename changes the display name
func (i *LineItem) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	i.Name = name
	return nil
}

// SetDescription changes the optional description
func (i *LineItem) SetDescription(description string) {
	i.Description = description
}

// SetKind changes the item kind
func (i *LineItem) SetKind(kind LineItemKind) error {
	if !kind.IsValid() {
		return shared.NewDomainError("INVALID_ITEM_KIND", "Item kind must be product or service")
	}
	i.Kind = kind
	return nil
}

// LinkCatalog records the catalog entry the item was seeded from
func (i *LineItem) LinkCatalog(ref uuid.UUID) {
	i.CatalogRef = &ref
}

// clone returns an independent copy with a fresh identity
func (i LineItem) clone() LineItem {
	c := i
	c.ID = uuid.New()
	if i.CatalogRef != nil {
		ref := *i.CatalogRef
		c.CatalogRef = &ref
	}
	return c
}

// contribution returns the amount the item adds to the subtotal.
// Rows with a negative quantity or price contribute nothing.
func (i LineItem) contribution() decimal.Decimal {
	if i.Quantity.IsNegative() || i.UnitPrice.IsNegative() {
		return decimal.Zero
	}
	return i.Quantity.Mul(i.UnitPrice)
}
