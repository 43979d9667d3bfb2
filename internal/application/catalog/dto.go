package catalog

import (
	"time"

	"github.com/erp/invoicing/internal/domain/catalog"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferingRequest carries the editable fields of a product or service.
// Price is the unit price of a product or the rate of a service.
type OfferingRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	Category    string          `json:"category" binding:"max=100"`
	Price       decimal.Decimal `json:"price"`
}

// ListFilter represents filter options for catalog lists
type ListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name category price created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OfferingResponse represents a product or service in API responses
type OfferingResponse struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToProductResponse converts a domain Product to OfferingResponse
func ToProductResponse(p *catalog.Product) OfferingResponse {
	return OfferingResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Kind:        "product",
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// ToServiceResponse converts a domain Service to OfferingResponse
func ToServiceResponse(s *catalog.Service) OfferingResponse {
	return OfferingResponse{
		ID:          s.ID,
		TenantID:    s.TenantID,
		Kind:        "service",
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Price:       s.Rate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
}

// Paging is the requested page and page size as sent
func (f ListFilter) Paging() (page, pageSize int) { return f.Page, f.PageSize }

func (f ListFilter) toDomain(priceColumn string) shared.Filter {
	if f.OrderBy == "" {
		f.OrderBy = "name"
	}
	if f.OrderBy == "price" {
		f.OrderBy = priceColumn
	}
	if f.OrderDir == "" {
		f.OrderDir = "asc"
	}
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
		Filters:  make(map[string]any),
	}
	if f.Category != "" {
		filter.Filters["category"] = f.Category
	}
	return filter.Normalize()
}
