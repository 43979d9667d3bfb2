package persistence

import (
	"context"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository implements invoicing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, payment *invoicing.Payment) error {
	return wrap(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error, "create payment")
}

// FindByInvoice lists the payments of one invoice, oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicing.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("payment_date, created_at").
		Find(&rows).Error; err != nil {
		return nil, wrap(err, "list invoice payments")
	}
	return toPayments(rows), nil
}

// FindAllForTenant lists payments for a tenant with filtering
func (r *GormPaymentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.Payment, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "payment_date"
	}
	var rows []models.PaymentModel
	if err := paginate(r.scoped(ctx, tenantID, filter), filter, PaymentSortFields).Find(&rows).Error; err != nil {
		return nil, wrap(err, "list payments")
	}
	return toPayments(rows), nil
}

// CountForTenant counts payments for a tenant
func (r *GormPaymentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.scoped(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, wrap(err, "count payments")
	}
	return count, nil
}

// SumForTenant sums all payment amounts for a tenant
func (r *GormPaymentRepository) SumForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ?", tenantID).
		Row().Scan(&sum); err != nil {
		return decimal.Zero, wrap(err, "sum payments")
	}
	return sum, nil
}

func (r *GormPaymentRepository) scoped(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "invoice_id":
			query = query.Where("invoice_id = ?", value)
		case "method":
			query = query.Where("method = ?", value)
		case "from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("payment_date >= ?", t)
			}
		case "to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("payment_date <= ?", t)
			}
		}
	}
	return whereSearch(query, filter.Search, "reference", "method", "notes")
}

func toPayments(rows []models.PaymentModel) []invoicing.Payment {
	payments := make([]invoicing.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

var _ invoicing.PaymentRepository = (*GormPaymentRepository)(nil)
