package partner

import (
	"context"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository persists customers; emails are unique per tenant
type CustomerRepository interface {
	shared.TenantRepository[Customer]
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}

// SupplierRepository persists suppliers; emails are unique per tenant
type SupplierRepository interface {
	shared.TenantRepository[Supplier]
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}
