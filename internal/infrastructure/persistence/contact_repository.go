package persistence

import (
	"context"

	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var contactSearchColumns = []string{"name", "email", "phone"}

// GormCustomerRepository stores a tenant's customers
type GormCustomerRepository struct {
	tenantStore[models.CustomerModel, partner.Customer, *models.CustomerModel]
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{tenantStore[models.CustomerModel, partner.Customer, *models.CustomerModel]{
		db: db, noun: "customer", searchIn: contactSearchColumns, sortable: ContactSortFields,
	}}
}

// ExistsByEmail reports whether another customer of the tenant uses email
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	return r.existsWhere(ctx, tenantID, "email = ?", normalizeEmail(email))
}

// GormSupplierRepository stores a tenant's suppliers
type GormSupplierRepository struct {
	tenantStore[models.SupplierModel, partner.Supplier, *models.SupplierModel]
}

func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{tenantStore[models.SupplierModel, partner.Supplier, *models.SupplierModel]{
		db: db, noun: "supplier", searchIn: contactSearchColumns, sortable: ContactSortFields,
	}}
}

// ExistsByEmail reports whether another supplier of the tenant uses email
func (r *GormSupplierRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	return r.existsWhere(ctx, tenantID, "email = ?", normalizeEmail(email))
}

var (
	_ partner.CustomerRepository = (*GormCustomerRepository)(nil)
	_ partner.SupplierRepository = (*GormSupplierRepository)(nil)
)
