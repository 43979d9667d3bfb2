package models

import (
	"time"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel holds the identity and timestamp columns every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the optimistic lock column
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// TenantAggregateModel adds the owning tenant; the tenant callback requires it in WHERE clauses
type TenantAggregateModel struct {
	AggregateModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *AggregateModel) root() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}

func (m *AggregateModel) setRoot(a shared.BaseAggregateRoot) {
	m.BaseModel = BaseModel{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
	m.Version = a.Version
}

func (m *TenantAggregateModel) tenantRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{BaseAggregateRoot: m.root(), TenantID: m.TenantID}
}

func (m *TenantAggregateModel) setTenantRoot(t shared.TenantAggregateRoot) {
	m.setRoot(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
}
