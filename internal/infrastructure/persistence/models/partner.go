package models

import (
	"github.com/erp/invoicing/internal/domain/partner"
)

// ContactColumns are the contact columns shared by customers and suppliers
type ContactColumns struct {
	Name    string `gorm:"type:varchar(200);not null"`
	Email   string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:varchar(500)"`
	TaxID   string `gorm:"type:varchar(50)"`
	Notes   string `gorm:"type:text"`
}

func (c ContactColumns) contact() partner.Contact {
	return partner.Contact{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		TaxID:   c.TaxID,
	}
}

func (c ContactColumns) party(root TenantAggregateModel) partner.Party {
	return partner.Party{TenantAggregateRoot: root.tenantRoot(), Contact: c.contact(), Notes: c.Notes}
}

func contactColumns(c partner.Contact, notes string) ContactColumns {
	return ContactColumns{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
		TaxID:   c.TaxID,
		Notes:   notes,
	}
}

// CustomerModel is the persistence model for the Customer aggregate root
type CustomerModel struct {
	TenantAggregateModel
	ContactColumns
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{Party: m.party(m.TenantAggregateModel)}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.setTenantRoot(c.TenantAggregateRoot)
	m.ContactColumns = contactColumns(c.Contact, c.Notes)
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// SupplierModel is the persistence model for the Supplier aggregate root
type SupplierModel struct {
	TenantAggregateModel
	ContactColumns
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{Party: m.party(m.TenantAggregateModel)}
}

// FromDomain populates the persistence model from a domain Supplier
func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.setTenantRoot(s.TenantAggregateRoot)
	m.ContactColumns = contactColumns(s.Contact, s.Notes)
}

// SupplierModelFromDomain creates a new persistence model from a domain Supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}
