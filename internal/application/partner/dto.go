package partner

import (
	"time"

	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// ContactRequest carries the editable contact fields of a customer or supplier
type ContactRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"required,email,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
	TaxID   string `json:"tax_id" binding:"max=50"`
	Notes   string `json:"notes" binding:"max=2000"`
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	ContactRequest
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	ContactRequest
}

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	ContactRequest
}

// UpdateSupplierRequest represents a request to update a supplier
type UpdateSupplierRequest struct {
	ContactRequest
}

// ListFilter represents filter options for customer and supplier lists
type ListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name email created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ContactResponse represents a customer or supplier in API responses
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	TaxID     string    `json:"tax_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse = ContactResponse

// SupplierResponse represents a supplier in API responses
type SupplierResponse = ContactResponse

func (r ContactRequest) toContact() (partner.Contact, error) {
	return partner.NewContact(r.Name, r.Email, r.Phone, r.Address, r.TaxID)
}

func toContactResponse(p *partner.Party) *ContactResponse {
	return &ContactResponse{
		ID:        p.ID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Address:   p.Address,
		TaxID:     p.TaxID,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
	}
}

// Paging is the requested page and page size as sent
func (f ListFilter) Paging() (page, pageSize int) { return f.Page, f.PageSize }

func (f ListFilter) toDomain() shared.Filter {
	if f.OrderBy == "" {
		f.OrderBy = "name"
	}
	if f.OrderDir == "" {
		f.OrderDir = "asc"
	}
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalize()
}
