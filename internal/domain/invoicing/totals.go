package invoicing

import (
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Display precision for monetary amounts
const displayPlaces = 2

var hundred = decimal.NewFromInt(100)

// Totals holds the document-level amounts derived from items and a tax rate
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// CalculateTotals derives subtotal, tax and grand total.
// The result is unrounded; use Display or FormatAmount for presentation.
func CalculateTotals(items []LineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.contribution())
	}
	if taxRate.IsNegative() {
		taxRate = decimal.Zero
	}
	taxAmount := subtotal.Mul(taxRate).Div(hundred)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal.Add(taxAmount),
	}
}

// Display returns the totals rounded to two decimal places
func (t Totals) Display() Totals {
	return Totals{
		Subtotal:  t.Subtotal.Round(displayPlaces),
		TaxAmount: t.TaxAmount.Round(displayPlaces),
		Total:     t.Total.Round(displayPlaces),
	}
}

// FormatAmount renders an amount with exactly two decimals
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(displayPlaces)
}

// ParseAmount reads a user-supplied quantity or price.
// Blank or non-numeric input yields (zero, false) instead of an error.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Pricing is the item list and tax figures shared by quotes and invoices
type Pricing struct {
	Items     []LineItem
	TaxRate   decimal.Decimal
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

func newPricing(taxRate decimal.Decimal) (Pricing, error) {
	if taxRate.IsNegative() {
		return Pricing{}, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	return Pricing{
		Items:     make([]LineItem, 0),
		TaxRate:   taxRate,
		Subtotal:  decimal.Zero,
		TaxAmount: decimal.Zero,
		Total:     decimal.Zero,
	}, nil
}

// Totals returns the current amounts
func (p *Pricing) Totals() Totals {
	return Totals{Subtotal: p.Subtotal, TaxAmount: p.TaxAmount, Total: p.Total}
}

// ItemCount returns the number of line items
func (p *Pricing) ItemCount() int {
	return len(p.Items)
}

// GetItem returns an item by its ID
func (p *Pricing) GetItem(itemID uuid.UUID) *LineItem {
	for idx := range p.Items {
		if p.Items[idx].ID == itemID {
			return &p.Items[idx]
		}
	}
	return nil
}

func (p *Pricing) recalculate() {
	t := CalculateTotals(p.Items, p.TaxRate)
	p.Subtotal = t.Subtotal
	p.TaxAmount = t.TaxAmount
	p.Total = t.Total
}

func (p *Pricing) setTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	p.TaxRate = rate
	p.recalculate()
	return nil
}

func (p *Pricing) addItem(item LineItem) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.Total = item.Quantity.Mul(item.UnitPrice)
	p.Items = append(p.Items, item)
	p.recalculate()
}

func (p *Pricing) replaceItems(items []LineItem) {
	p.Items = make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.Total = item.Quantity.Mul(item.UnitPrice)
		p.Items = append(p.Items, item)
	}
	p.recalculate()
}

// updateItem applies fn to one item and recomputes the aggregate totals
func (p *Pricing) updateItem(itemID uuid.UUID, fn func(*LineItem) error) error {
	item := p.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
	}
	if err := fn(item); err != nil {
		return err
	}
	p.recalculate()
	return nil
}

func (p *Pricing) removeItem(itemID uuid.UUID) error {
	for idx, item := range p.Items {
		if item.ID == itemID {
			p.Items = append(p.Items[:idx], p.Items[idx+1:]...)
			p.recalculate()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
}

// copyPricing deep-copies items so the copy shares no memory with the source
func copyPricing(src Pricing) Pricing {
	items := make([]LineItem, len(src.Items))
	for idx, item := range src.Items {
		items[idx] = item.clone()
	}
	return Pricing{
		Items:     items,
		TaxRate:   src.TaxRate,
		Subtotal:  src.Subtotal,
		TaxAmount: src.TaxAmount,
		Total:     src.Total,
	}
}
