package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientColumns hold the client snapshot stored on quotes and invoices
type ClientColumns struct {
	Name    string `gorm:"type:varchar(200);not null"`
	Email   string `gorm:"type:varchar(200)"`
	Address string `gorm:"type:varchar(500)"`
	TaxID   string `gorm:"type:varchar(50)"`
}

func (c ClientColumns) toDomain() invoicing.Client {
	return invoicing.Client{Name: c.Name, Email: c.Email, Address: c.Address, TaxID: c.TaxID}
}

func clientColumns(c invoicing.Client) ClientColumns {
	return ClientColumns{Name: c.Name, Email: c.Email, Address: c.Address, TaxID: c.TaxID}
}

// PricingColumns hold the stored tax rate and derived amounts
type PricingColumns struct {
	TaxRate   decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (p PricingColumns) toDomain(items []invoicing.LineItem) invoicing.Pricing {
	return invoicing.Pricing{
		Items:     items,
		TaxRate:   p.TaxRate,
		Subtotal:  p.Subtotal,
		TaxAmount: p.TaxAmount,
		Total:     p.Total,
	}
}

func pricingColumns(p invoicing.Pricing) PricingColumns {
	return PricingColumns{TaxRate: p.TaxRate, Subtotal: p.Subtotal, TaxAmount: p.TaxAmount, Total: p.Total}
}

// LineItemColumns are the columns shared by quote and invoice items
type LineItemColumns struct {
	ID          uuid.UUID              `gorm:"type:uuid;primary_key"`
	Position    int                    `gorm:"not null;default:0"`
	Kind        invoicing.LineItemKind `gorm:"type:varchar(20);not null;default:'product'"`
	CatalogRef  *uuid.UUID             `gorm:"type:uuid"`
	Name        string                 `gorm:"type:varchar(200);not null"`
	Description string                 `gorm:"type:text"`
	Quantity    decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Total       decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
}

func (c LineItemColumns) toDomain() invoicing.LineItem {
	return invoicing.LineItem{
		ID:          c.ID,
		Kind:        c.Kind,
		CatalogRef:  c.CatalogRef,
		Name:        c.Name,
		Description: c.Description,
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice,
		Total:       c.Total,
	}
}

func lineItemColumns(item invoicing.LineItem, position int) LineItemColumns {
	return LineItemColumns{
		ID:          item.ID,
		Position:    position,
		Kind:        item.Kind,
		CatalogRef:  item.CatalogRef,
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Total:       item.Total,
	}
}

// QuoteModel is the persistence model for the Quote aggregate root
type QuoteModel struct {
	AggregateModel
	TenantID    uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_quotes_tenant_number,priority:1"`
	QuoteNumber string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_quotes_tenant_number,priority:2"`
	CustomerID  *uuid.UUID            `gorm:"type:uuid;index"`
	Client      ClientColumns         `gorm:"embedded;embeddedPrefix:client_"`
	Pricing     PricingColumns        `gorm:"embedded"`
	Status      invoicing.QuoteStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	ValidUntil  *time.Time
	Notes       string `gorm:"type:text"`
	SentAt      *time.Time
	ConvertedAt *time.Time
	InvoiceID   *uuid.UUID       `gorm:"type:uuid"`
	Items       []QuoteItemModel `gorm:"foreignKey:QuoteID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() *invoicing.Quote {
	items := make([]invoicing.LineItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = item.toDomain()
	}
	return &invoicing.Quote{
		TenantAggregateRoot: shared.TenantAggregateRoot{BaseAggregateRoot: m.root(), TenantID: m.TenantID},
		Pricing:             m.Pricing.toDomain(items),
		QuoteNumber:         m.QuoteNumber,
		CustomerID:          m.CustomerID,
		Client:              m.Client.toDomain(),
		Status:              m.Status,
		ValidUntil:          m.ValidUntil,
		Notes:               m.Notes,
		SentAt:              m.SentAt,
		ConvertedAt:         m.ConvertedAt,
		InvoiceID:           m.InvoiceID,
	}
}

// FromDomain populates the persistence model from a domain Quote
func (m *QuoteModel) FromDomain(q *invoicing.Quote) {
	m.setRoot(q.BaseAggregateRoot)
	m.TenantID = q.TenantID
	m.QuoteNumber = q.QuoteNumber
	m.CustomerID = q.CustomerID
	m.Client = clientColumns(q.Client)
	m.Pricing = pricingColumns(q.Pricing)
	m.Status = q.Status
	m.ValidUntil = q.ValidUntil
	m.Notes = q.Notes
	m.SentAt = q.SentAt
	m.ConvertedAt = q.ConvertedAt
	m.InvoiceID = q.InvoiceID
	m.Items = make([]QuoteItemModel, len(q.Items))
	for i, item := range q.Items {
		m.Items[i] = QuoteItemModel{QuoteID: q.ID, LineItemColumns: lineItemColumns(item, i)}
	}
}

// QuoteModelFromDomain creates a new persistence model from a domain Quote
func QuoteModelFromDomain(q *invoicing.Quote) *QuoteModel {
	m := &QuoteModel{}
	m.FromDomain(q)
	return m
}

// QuoteItemModel is the persistence model for a quote line item
type QuoteItemModel struct {
	LineItemColumns
	QuoteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (QuoteItemModel) TableName() string {
	return "quote_items"
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
// QuoteID is unique so a quote converts at most once.
type InvoiceModel struct {
	AggregateModel
	TenantID      uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_tenant_number,priority:1"`
	InvoiceNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_tenant_number,priority:2"`
	QuoteID       *uuid.UUID              `gorm:"type:uuid;uniqueIndex"`
	CustomerID    *uuid.UUID              `gorm:"type:uuid;index"`
	Client        ClientColumns           `gorm:"embedded;embeddedPrefix:client_"`
	Pricing       PricingColumns          `gorm:"embedded"`
	Status        invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	DueDate       time.Time               `gorm:"not null;index"`
	Notes         string                  `gorm:"type:text"`
	Template      invoicing.Template      `gorm:"type:varchar(20);not null;default:'english'"`
	IncludeQR     bool                    `gorm:"column:include_qr;not null;default:false"`
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments      []PaymentModel     `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	items := make([]invoicing.LineItem, len(m.Items))
	for i, item := range m.Items {
		items[i] = item.toDomain()
	}
	payments := make([]invoicing.Payment, len(m.Payments))
	for i := range m.Payments {
		payments[i] = *m.Payments[i].ToDomain()
	}
	return &invoicing.Invoice{
		TenantAggregateRoot: shared.TenantAggregateRoot{BaseAggregateRoot: m.root(), TenantID: m.TenantID},
		Pricing:             m.Pricing.toDomain(items),
		InvoiceNumber:       m.InvoiceNumber,
		QuoteID:             m.QuoteID,
		CustomerID:          m.CustomerID,
		Client:              m.Client.toDomain(),
		Status:              m.Status,
		DueDate:             m.DueDate,
		Notes:               m.Notes,
		Template:            m.Template,
		IncludeQR:           m.IncludeQR,
		Payments:            payments,
		SentAt:              m.SentAt,
		PaidAt:              m.PaidAt,
		CancelledAt:         m.CancelledAt,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
// Payments are written through the payment repository and are not copied.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.setRoot(inv.BaseAggregateRoot)
	m.TenantID = inv.TenantID
	m.InvoiceNumber = inv.InvoiceNumber
	m.QuoteID = inv.QuoteID
	m.CustomerID = inv.CustomerID
	m.Client = clientColumns(inv.Client)
	m.Pricing = pricingColumns(inv.Pricing)
	m.Status = inv.Status
	m.DueDate = inv.DueDate
	m.Notes = inv.Notes
	m.Template = inv.Template
	m.IncludeQR = inv.IncludeQR
	m.SentAt = inv.SentAt
	m.PaidAt = inv.PaidAt
	m.CancelledAt = inv.CancelledAt
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModel{InvoiceID: inv.ID, LineItemColumns: lineItemColumns(item, i)}
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceItemModel is the persistence model for an invoice line item
type InvoiceItemModel struct {
	LineItemColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// PaymentModel is the persistence model for a payment against an invoice
type PaymentModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentDate time.Time       `gorm:"not null"`
	Method      string          `gorm:"type:varchar(100)"`
	Reference   string          `gorm:"type:varchar(200)"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *invoicing.Payment {
	return &invoicing.Payment{
		ID:          m.ID,
		TenantID:    m.TenantID,
		InvoiceID:   m.InvoiceID,
		Amount:      m.Amount,
		PaymentDate: m.PaymentDate,
		Method:      m.Method,
		Reference:   m.Reference,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		TenantID:    p.TenantID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate,
		Method:      p.Method,
		Reference:   p.Reference,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}

// All returns every model, in dependency order, for schema setup in tests
func All() []any {
	return []any{
		&TenantModel{}, &UserModel{},
		&CustomerModel{}, &SupplierModel{},
		&ProductModel{}, &ServiceModel{},
		&QuoteModel{}, &QuoteItemModel{},
		&InvoiceModel{}, &InvoiceItemModel{},
		&PaymentModel{},
	}
}
