package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate root
type TenantModel struct {
	AggregateModel
	Name               string                      `gorm:"type:varchar(200);not null"`
	Email              string                      `gorm:"type:varchar(200);not null"`
	Phone              string                      `gorm:"type:varchar(50)"`
	Address            string                      `gorm:"type:varchar(500)"`
	TaxID              string                      `gorm:"type:varchar(50)"`
	SubscriptionStatus identity.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'trial'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot:  m.root(),
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		Address:            m.Address,
		TaxID:              m.TaxID,
		SubscriptionStatus: m.SubscriptionStatus,
	}
}

// FromDomain populates the persistence model from a domain Tenant
func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.setRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.Email = t.Email
	m.Phone = t.Phone
	m.Address = t.Address
	m.TaxID = t.TaxID
	m.SubscriptionStatus = t.SubscriptionStatus
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// UserModel is the persistence model for the User aggregate root.
// Email is unique across tenants since sign-in happens before a tenant is known.
type UserModel struct {
	TenantAggregateModel
	Email        string                `gorm:"type:varchar(200);not null;uniqueIndex"`
	DisplayName  string                `gorm:"type:varchar(200)"`
	PasswordHash string                `gorm:"type:varchar(255)"`
	Provider     identity.AuthProvider `gorm:"type:varchar(20);not null;default:'password';index:idx_users_provider,priority:1"`
	ProviderUID  string                `gorm:"type:varchar(128);index:idx_users_provider,priority:2"`
	Status       identity.UserStatus   `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.tenantRoot(),
		Email:               m.Email,
		DisplayName:         m.DisplayName,
		PasswordHash:        m.PasswordHash,
		Provider:            m.Provider,
		ProviderUID:         m.ProviderUID,
		Status:              m.Status,
		LastLoginAt:         m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.setTenantRoot(u.TenantAggregateRoot)
	m.Email = u.Email
	m.DisplayName = u.DisplayName
	m.PasswordHash = u.PasswordHash
	m.Provider = u.Provider
	m.ProviderUID = u.ProviderUID
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
