package handler

import (
	catalogapp "github.com/erp/invoicing/internal/application/catalog"
	partnerapp "github.com/erp/invoicing/internal/application/partner"
)

// OfferingService manages one kind of catalog entry (products or services)
type OfferingService = ResourceService[catalogapp.OfferingRequest, catalogapp.OfferingRequest,
	catalogapp.OfferingResponse, catalogapp.ListFilter]

// CatalogHandler serves /catalog/products or /catalog/services; both share one shape
type CatalogHandler = ResourceHandler[catalogapp.OfferingRequest, catalogapp.OfferingRequest,
	catalogapp.OfferingResponse, catalogapp.ListFilter]

func NewProductHandler(products OfferingService) *CatalogHandler {
	return &CatalogHandler{svc: products}
}

func NewServiceHandler(services OfferingService) *CatalogHandler {
	return &CatalogHandler{svc: services}
}

// CustomerService manages a tenant's customers
type CustomerService = ResourceService[partnerapp.CreateCustomerRequest, partnerapp.UpdateCustomerRequest,
	partnerapp.CustomerResponse, partnerapp.ListFilter]

// CustomerHandler serves /customers
type CustomerHandler = ResourceHandler[partnerapp.CreateCustomerRequest, partnerapp.UpdateCustomerRequest,
	partnerapp.CustomerResponse, partnerapp.ListFilter]

func NewCustomerHandler(customers CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: customers}
}

// SupplierService manages a tenant's suppliers
type SupplierService = ResourceService[partnerapp.CreateSupplierRequest, partnerapp.UpdateSupplierRequest,
	partnerapp.SupplierResponse, partnerapp.ListFilter]

// SupplierHandler serves /suppliers
type SupplierHandler = ResourceHandler[partnerapp.CreateSupplierRequest, partnerapp.UpdateSupplierRequest,
	partnerapp.SupplierResponse, partnerapp.ListFilter]

func NewSupplierHandler(suppliers SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: suppliers}
}
