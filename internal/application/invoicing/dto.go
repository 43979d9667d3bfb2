package invoicing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amount is a quantity or price as submitted by a form.
// JSON numbers and numeric strings are accepted; anything else decodes as missing.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount wraps a known value
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// UnmarshalJSON never fails; unreadable input leaves the amount missing
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*a = Amount{}
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	a.Value, a.Valid = invoicing.ParseAmount(raw)
	return nil
}

// MarshalJSON renders the value, or null when missing
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// OrZero returns the value, or zero when missing
func (a Amount) OrZero() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Value
}

// LineItemInput is one row of a quote or invoice form
type LineItemInput struct {
	Kind        string     `json:"kind" binding:"omitempty,oneof=product service"`
	CatalogRef  *uuid.UUID `json:"catalog_ref"`
	Name        string     `json:"name" binding:"max=200"`
	Description string     `json:"description" binding:"max=1000"`
	Quantity    Amount     `json:"quantity"`
	UnitPrice   Amount     `json:"unit_price"`
}

// ClientInput carries client identity fields; empty fields are filled from CustomerID
type ClientInput struct {
	CustomerID *uuid.UUID `json:"customer_id"`
	Name       string     `json:"client_name" binding:"max=200"`
	Email      string     `json:"client_email" binding:"omitempty,email,max=200"`
	Address    string     `json:"client_address" binding:"max=500"`
	TaxID      string     `json:"client_tax_id" binding:"max=50"`
}

// filterID adds an optional ID query parameter to a repository filter
func filterID(filters map[string]interface{}, key, raw string) error {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return shared.NewDomainError("INVALID_ID", fmt.Sprintf("Invalid %s", key))
	}
	filters[key] = id
	return nil
}

// ==================== Quote DTOs ====================

// CreateQuoteRequest represents a request to create a quote
type CreateQuoteRequest struct {
	ClientInput
	Items      []LineItemInput `json:"items" binding:"dive"`
	TaxRate    Amount          `json:"tax_rate"`
	ValidUntil *time.Time      `json:"valid_until"`
	Notes      string          `json:"notes" binding:"max=2000"`
}

// UpdateQuoteRequest replaces the editable fields of a draft quote.
// Nil fields are left unchanged.
type UpdateQuoteRequest struct {
	Client     *ClientInput     `json:"client"`
	Items      *[]LineItemInput `json:"items"`
	TaxRate    *Amount          `json:"tax_rate"`
	ValidUntil *time.Time       `json:"valid_until"`
	Notes      *string          `json:"notes"`
}

// ChangeStatusRequest moves a quote or invoice along its lifecycle
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// QuoteListFilter represents filter options for the quote list
type QuoteListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at quote_number total"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	CatalogRef  *uuid.UUID      `json:"catalog_ref,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID            uuid.UUID          `json:"id"`
	TenantID      uuid.UUID          `json:"tenant_id"`
	QuoteNumber   string             `json:"quote_number"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	ClientName    string             `json:"client_name"`
	ClientEmail   string             `json:"client_email"`
	ClientAddress string             `json:"client_address,omitempty"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TaxRate       decimal.Decimal    `json:"tax_rate"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	Total         decimal.Decimal    `json:"total"`
	Status        string             `json:"status"`
	NextStatuses  []string           `json:"next_statuses"`
	ValidUntil    *time.Time         `json:"valid_until,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	ConvertedAt   *time.Time         `json:"converted_at,omitempty"`
	InvoiceID     *uuid.UUID         `json:"invoice_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// QuoteListItemResponse represents a quote in list responses
type QuoteListItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	QuoteNumber string          `json:"quote_number"`
	ClientName  string          `json:"client_name"`
	ItemCount   int             `json:"item_count"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	ValidUntil  *time.Time      `json:"valid_until,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ConversionResponse is returned after a quote became an invoice
type ConversionResponse struct {
	Quote   QuoteResponse   `json:"quote"`
	Invoice InvoiceResponse `json:"invoice"`
}

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to create an invoice directly
type CreateInvoiceRequest struct {
	ClientInput
	Items     []LineItemInput `json:"items" binding:"dive"`
	TaxRate   Amount          `json:"tax_rate"`
	DueDate   *time.Time      `json:"due_date"`
	Notes     string          `json:"notes" binding:"max=2000"`
	Template  string          `json:"template" binding:"omitempty,oneof=english arabic"`
	IncludeQR bool            `json:"include_qr"`
}

// UpdateInvoiceRequest changes an invoice; items, tax and client only while draft
type UpdateInvoiceRequest struct {
	Client    *ClientInput     `json:"client"`
	Items     *[]LineItemInput `json:"items"`
	TaxRate   *Amount          `json:"tax_rate"`
	DueDate   *time.Time       `json:"due_date"`
	Notes     *string          `json:"notes"`
	Template  *string          `json:"template" binding:"omitempty,oneof=english arabic"`
	IncludeQR *bool            `json:"include_qr"`
}

// RecordPaymentRequest represents a payment received against an invoice
type RecordPaymentRequest struct {
	Amount      Amount     `json:"amount"`
	PaymentDate *time.Time `json:"payment_date"`
	Method      string     `json:"method" binding:"required,max=50"`
	Reference   string     `json:"reference" binding:"max=100"`
	Notes       string     `json:"notes" binding:"max=1000"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	QuoteID    string     `form:"quote_id" binding:"omitempty,uuid"`
	DueBefore  *time.Time `form:"due_before" time_format:"2006-01-02"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at due_date invoice_number total"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// PaymentListFilter represents filter options for payment lists
type PaymentListFilter struct {
	InvoiceID string     `form:"invoice_id" binding:"omitempty,uuid"`
	Method    string     `form:"method"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	TenantID      uuid.UUID          `json:"tenant_id"`
	InvoiceNumber string             `json:"invoice_number"`
	QuoteID       *uuid.UUID         `json:"quote_id,omitempty"`
	CustomerID    *uuid.UUID         `json:"customer_id,omitempty"`
	ClientName    string             `json:"client_name"`
	ClientEmail   string             `json:"client_email"`
	ClientAddress string             `json:"client_address,omitempty"`
	ClientTaxID   string             `json:"client_tax_id,omitempty"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TaxRate       decimal.Decimal    `json:"tax_rate"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	Total         decimal.Decimal    `json:"total"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	BalanceDue    decimal.Decimal    `json:"balance_due"`
	Status        string             `json:"status"`
	NextStatuses  []string           `json:"next_statuses"`
	DueDate       time.Time          `json:"due_date"`
	Notes         string             `json:"notes,omitempty"`
	Template      string             `json:"template"`
	IncludeQR     bool               `json:"include_qr"`
	Payments      []PaymentResponse  `json:"payments"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	CancelledAt   *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// InvoiceListItemResponse represents an invoice in list responses
type InvoiceListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	QuoteID       *uuid.UUID      `json:"quote_id,omitempty"`
	ClientName    string          `json:"client_name"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	DueDate       time.Time       `json:"due_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ComplianceResponse carries the compliance payload and its encoded form
type ComplianceResponse struct {
	Payload  invoicing.CompliancePayload `json:"payload"`
	Encoding string                      `json:"encoding"`
	Encoded  string                      `json:"encoded"`
}

// ==================== Dashboard DTOs ====================

// DashboardSummary aggregates tenant-wide figures
type DashboardSummary struct {
	QuotesByStatus   map[string]int64 `json:"quotes_by_status"`
	InvoicesByStatus map[string]int64 `json:"invoices_by_status"`
	TotalInvoiced    decimal.Decimal  `json:"total_invoiced"`
	TotalPaid        decimal.Decimal  `json:"total_paid"`
	Outstanding      decimal.Decimal  `json:"outstanding"`
	CustomerCount    int64            `json:"customer_count"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// ==================== Mappers ====================

// ToLineItemResponses converts domain line items to responses
func ToLineItemResponses(items []invoicing.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for idx, item := range items {
		out[idx] = LineItemResponse{
			ID:          item.ID,
			Kind:        string(item.Kind),
			CatalogRef:  item.CatalogRef,
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		}
	}
	return out
}

// ToQuoteResponse converts a domain Quote to QuoteResponse
func ToQuoteResponse(q *invoicing.Quote) QuoteResponse {
	next := make([]string, 0)
	for _, s := range q.Status.AllowedTransitions() {
		if s != invoicing.QuoteStatusConverted {
			next = append(next, string(s))
		}
	}
	return QuoteResponse{
		ID:            q.ID,
		TenantID:      q.TenantID,
		QuoteNumber:   q.QuoteNumber,
		CustomerID:    q.CustomerID,
		ClientName:    q.Client.Name,
		ClientEmail:   q.Client.Email,
		ClientAddress: q.Client.Address,
		Items:         ToLineItemResponses(q.Items),
		Subtotal:      q.Subtotal,
		TaxRate:       q.TaxRate,
		TaxAmount:     q.TaxAmount,
		Total:         q.Total,
		Status:        string(q.Status),
		NextStatuses:  next,
		ValidUntil:    q.ValidUntil,
		Notes:         q.Notes,
		SentAt:        q.SentAt,
		ConvertedAt:   q.ConvertedAt,
		InvoiceID:     q.InvoiceID,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
		Version:       q.Version,
	}
}

// ToQuoteListItemResponses converts quotes to list responses
func ToQuoteListItemResponses(quotes []invoicing.Quote) []QuoteListItemResponse {
	out := make([]QuoteListItemResponse, len(quotes))
	for idx := range quotes {
		q := &quotes[idx]
		out[idx] = QuoteListItemResponse{
			ID:          q.ID,
			QuoteNumber: q.QuoteNumber,
			ClientName:  q.Client.Name,
			ItemCount:   q.ItemCount(),
			Total:       q.Total,
			Status:      string(q.Status),
			ValidUntil:  q.ValidUntil,
			CreatedAt:   q.CreatedAt,
		}
	}
	return out
}

// ToPaymentResponse converts a domain Payment to PaymentResponse
func ToPaymentResponse(p *invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		InvoiceID:   p.InvoiceID,
		Amount:      p.Amount,
		PaymentDate: p.PaymentDate,
		Method:      p.Method,
		Reference:   p.Reference,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}

// ToPaymentResponses converts payments to responses
func ToPaymentResponses(payments []invoicing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for idx := range payments {
		out[idx] = ToPaymentResponse(&payments[idx])
	}
	return out
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	next := make([]string, 0)
	for _, s := range inv.Status.AllowedTransitions() {
		next = append(next, string(s))
	}
	return InvoiceResponse{
		ID:            inv.ID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		QuoteID:       inv.QuoteID,
		CustomerID:    inv.CustomerID,
		ClientName:    inv.Client.Name,
		ClientEmail:   inv.Client.Email,
		ClientAddress: inv.Client.Address,
		ClientTaxID:   inv.Client.TaxID,
		Items:         ToLineItemResponses(inv.Items),
		Subtotal:      inv.Subtotal,
		TaxRate:       inv.TaxRate,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		AmountPaid:    inv.AmountPaid(),
		BalanceDue:    inv.BalanceDue(),
		Status:        string(inv.Status),
		NextStatuses:  next,
		DueDate:       inv.DueDate,
		Notes:         inv.Notes,
		Template:      string(inv.Template),
		IncludeQR:     inv.IncludeQR,
		Payments:      ToPaymentResponses(inv.Payments),
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		CancelledAt:   inv.CancelledAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

// ToInvoiceListItemResponses converts invoices to list responses
func ToInvoiceListItemResponses(invoices []invoicing.Invoice) []InvoiceListItemResponse {
	out := make([]InvoiceListItemResponse, len(invoices))
	for idx := range invoices {
		inv := &invoices[idx]
		out[idx] = InvoiceListItemResponse{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			QuoteID:       inv.QuoteID,
			ClientName:    inv.Client.Name,
			Total:         inv.Total,
			Status:        string(inv.Status),
			DueDate:       inv.DueDate,
			CreatedAt:     inv.CreatedAt,
		}
	}
	return out
}
