package models

import (
	"github.com/erp/invoicing/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// OfferingColumns are the columns shared by products and services
type OfferingColumns struct {
	Name        string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"type:varchar(100);index"`
}

func (o OfferingColumns) offering() catalog.Offering {
	return catalog.Offering{Name: o.Name, Description: o.Description, Category: o.Category}
}

func offeringColumns(o catalog.Offering) OfferingColumns {
	return OfferingColumns{Name: o.Name, Description: o.Description, Category: o.Category}
}

// ProductModel is the persistence model for the Product aggregate root
type ProductModel struct {
	TenantAggregateModel
	OfferingColumns
	Price decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantAggregateRoot: m.tenantRoot(),
		Offering:            m.offering(),
		Price:               m.Price,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.setTenantRoot(p.TenantAggregateRoot)
	m.OfferingColumns = offeringColumns(p.Offering)
	m.Price = p.Price
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ServiceModel is the persistence model for the Service aggregate root
type ServiceModel struct {
	TenantAggregateModel
	OfferingColumns
	Rate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ServiceModel) TableName() string {
	return "services"
}

// ToDomain converts the persistence model to a domain Service
func (m *ServiceModel) ToDomain() *catalog.Service {
	return &catalog.Service{
		TenantAggregateRoot: m.tenantRoot(),
		Offering:            m.offering(),
		Rate:                m.Rate,
	}
}

// FromDomain populates the persistence model from a domain Service
func (m *ServiceModel) FromDomain(s *catalog.Service) {
	m.setTenantRoot(s.TenantAggregateRoot)
	m.OfferingColumns = offeringColumns(s.Offering)
	m.Rate = s.Rate
}

// ServiceModelFromDomain creates a new persistence model from a domain Service
func ServiceModelFromDomain(s *catalog.Service) *ServiceModel {
	m := &ServiceModel{}
	m.FromDomain(s)
	return m
}
