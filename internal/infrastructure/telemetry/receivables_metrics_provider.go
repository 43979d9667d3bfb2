package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivablesMetricsProvider implements ReceivablesMetricsProvider using GORM.
// It reads the invoices and payments tables directly.
type GormReceivablesMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivablesMetricsProvider creates a new GormReceivablesMetricsProvider.
func NewGormReceivablesMetricsProvider(db *gorm.DB) *GormReceivablesMetricsProvider {
	return &GormReceivablesMetricsProvider{db: db}
}

// CountOverdue returns the number of overdue invoices for a tenant.
func (p *GormReceivablesMetricsProvider) CountOverdue(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("invoices").
		Where("tenant_id = ? AND status = ?", tenantID, "overdue").
		Count(&count).Error
	return count, err
}

// OutstandingAmount returns the open balance of sent and overdue invoices for a tenant.
func (p *GormReceivablesMetricsProvider) OutstandingAmount(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	open := []string{"sent", "overdue"}

	var invoiced decimal.NullDecimal
	if err := p.db.WithContext(ctx).
		Table("invoices").
		Select("SUM(total)").
		Where("tenant_id = ? AND status IN ?", tenantID, open).
		Scan(&invoiced).Error; err != nil {
		return decimal.Zero, err
	}

	var paid decimal.NullDecimal
	if err := p.db.WithContext(ctx).
		Table("payments").
		Select("SUM(payments.amount)").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Where("payments.tenant_id = ? AND invoices.status IN ?", tenantID, open).
		Scan(&paid).Error; err != nil {
		return decimal.Zero, err
	}

	return invoiced.Decimal.Sub(paid.Decimal), nil
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns IDs of tenants with an active or trial subscription.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tenants").
		Where("subscription_status IN ?", []string{"active", "trial"}).
		Pluck("id", &ids).Error
	return ids, err
}
