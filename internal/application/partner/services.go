package partner

import (
	"context"

	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/google/uuid"
)

// CustomerService manages the tenant's customers
type CustomerService struct {
	contactBook[partner.Customer, *partner.Customer]
}

func NewCustomerService(repo partner.CustomerRepository) *CustomerService {
	return &CustomerService{contactBook[partner.Customer, *partner.Customer]{
		repo:      repo,
		noun:      "Customer",
		construct: partner.NewCustomer,
	}}
}

func (s *CustomerService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	return s.create(ctx, tenantID, req.ContactRequest)
}

func (s *CustomerService) GetByID(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	return s.get(ctx, tenantID, customerID)
}

func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]CustomerResponse, int64, error) {
	return s.list(ctx, tenantID, filter)
}

func (s *CustomerService) Update(ctx context.Context, tenantID, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	return s.update(ctx, tenantID, customerID, req.ContactRequest)
}

func (s *CustomerService) Delete(ctx context.Context, tenantID, customerID uuid.UUID) error {
	return s.delete(ctx, tenantID, customerID)
}

// SupplierService manages the tenant's suppliers
type SupplierService struct {
	contactBook[partner.Supplier, *partner.Supplier]
}

func NewSupplierService(repo partner.SupplierRepository) *SupplierService {
	return &SupplierService{contactBook[partner.Supplier, *partner.Supplier]{
		repo:      repo,
		noun:      "Supplier",
		construct: partner.NewSupplier,
	}}
}

func (s *SupplierService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSupplierRequest) (*SupplierResponse, error) {
	return s.create(ctx, tenantID, req.ContactRequest)
}

func (s *SupplierService) GetByID(ctx context.Context, tenantID, supplierID uuid.UUID) (*SupplierResponse, error) {
	return s.get(ctx, tenantID, supplierID)
}

func (s *SupplierService) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]SupplierResponse, int64, error) {
	return s.list(ctx, tenantID, filter)
}

func (s *SupplierService) Update(ctx context.Context, tenantID, supplierID uuid.UUID, req UpdateSupplierRequest) (*SupplierResponse, error) {
	return s.update(ctx, tenantID, supplierID, req.ContactRequest)
}

func (s *SupplierService) Delete(ctx context.Context, tenantID, supplierID uuid.UUID) error {
	return s.delete(ctx, tenantID, supplierID)
}
