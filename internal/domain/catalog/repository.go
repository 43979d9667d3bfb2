package catalog

import "github.com/erp/invoicing/internal/domain/shared"

// ProductRepository persists products. filter.Filters["category"] narrows listings to one category.
type ProductRepository interface {
	shared.TenantRepository[Product]
}

// ServiceRepository persists services, filtered by category like products
type ServiceRepository interface {
	shared.TenantRepository[Service]
}
