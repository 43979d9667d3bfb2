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
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db       *gorm.DB
	numberer *documentNumberer
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{
		db:       db,
		numberer: newDocumentNumberer(db, &models.InvoiceModel{}, "invoice_number", InvoiceNumberPrefix),
	}
}

// FindByIDForTenant finds an invoice with its items and payments
func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "find invoice")
	}
	return model.ToDomain(), nil
}

// FindByQuoteID finds the invoice produced from a quote
func (r *GormInvoiceRepository) FindByQuoteID(ctx context.Context, tenantID, quoteID uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.withDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND quote_id = ?", tenantID, quoteID).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "find invoice by quote")
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all invoices for a tenant with filtering
func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.withDetails(paginate(r.scoped(ctx, tenantID, filter), filter, InvoiceSortFields))
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrap(err, "list invoices")
	}
	return toInvoices(rows), nil
}

// FindOverdueCandidates finds draft or sent invoices due before asOf, across tenants, oldest due first
func (r *GormInvoiceRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.withDetails(r.db.WithContext(ctx)).
		Where("status IN ? AND due_date < ?", []invoicing.InvoiceStatus{invoicing.InvoiceStatusDraft, invoicing.InvoiceStatusSent}, asOf).
		Order("due_date, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrap(err, "find overdue candidates")
	}
	return toInvoices(rows), nil
}

// CountForTenant counts invoices for a tenant with optional filters
func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.scoped(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, wrap(err, "count invoices")
	}
	return count, nil
}

// CountByStatus counts invoices per status for a tenant
func (r *GormInvoiceRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[invoicing.InvoiceStatus]int64, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, wrap(err, "count invoices by status")
	}

	counts := make(map[invoicing.InvoiceStatus]int64, len(rows))
	for _, row := range rows {
		counts[invoicing.InvoiceStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// SumTotals sums invoice totals for a tenant, excluding the given statuses
func (r *GormInvoiceRepository) SumTotals(ctx context.Context, tenantID uuid.UUID, exclude ...invoicing.InvoiceStatus) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("COALESCE(SUM(total), 0)").
		Where("tenant_id = ?", tenantID)
	if len(exclude) > 0 {
		query = query.Where("status NOT IN ?", exclude)
	}

	var sum decimal.Decimal
	if err := query.Row().Scan(&sum); err != nil {
		return decimal.Zero, wrap(err, "sum invoice totals")
	}
	return sum, nil
}

// Save creates a new invoice with its items
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createInvoice(tx, invoice)
	})
}

// SaveWithLock updates an invoice with optimistic locking (version check).
// Payments are never written here; see GormPaymentRepository.Create.
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expected := invoice.Version
		now := time.Now()

		model := models.InvoiceModelFromDomain(invoice)
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND tenant_id = ? AND version = ?", invoice.ID, invoice.TenantID, expected).
			Updates(map[string]any{
				"customer_id":    model.CustomerID,
				"client_name":    model.Client.Name,
				"client_email":   model.Client.Email,
				"client_address": model.Client.Address,
				"client_tax_id":  model.Client.TaxID,
				"tax_rate":       model.Pricing.TaxRate,
				"subtotal":       model.Pricing.Subtotal,
				"tax_amount":     model.Pricing.TaxAmount,
				"total":          model.Pricing.Total,
				"status":         model.Status,
				"due_date":       model.DueDate,
				"notes":          model.Notes,
				"template":       model.Template,
				"include_qr":     model.IncludeQR,
				"sent_at":        model.SentAt,
				"paid_at":        model.PaidAt,
				"cancelled_at":   model.CancelledAt,
				"version":        expected + 1,
				"updated_at":     now,
			})
		if result.Error != nil {
			return wrap(result.Error, "update invoice")
		}
		if result.RowsAffected == 0 {
			return versionMiss(tx, &models.InvoiceModel{}, invoice.TenantID, invoice.ID)
		}

		if err := replaceInvoiceItems(tx, model); err != nil {
			return err
		}
		invoice.Version = expected + 1
		invoice.UpdatedAt = now
		return nil
	})
}

// GenerateInvoiceNumber generates a unique invoice number for a tenant
// Format: INV-YYYY-NNNNN (e.g., INV-2026-00001)
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return r.numberer.Next(ctx, tenantID)
}

func (r *GormInvoiceRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", orderByPosition).Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("payment_date, created_at")
	})
}

func (r *GormInvoiceRepository) scoped(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "quote_id":
			query = query.Where("quote_id = ?", value)
		case "due_before":
			if t, ok := value.(time.Time); ok {
				query = query.Where("due_date < ?", t)
			}
		}
	}
	return whereSearch(query, filter.Search, "invoice_number", "client_name", "client_email")
}

// createInvoice inserts an invoice row and its items
func createInvoice(tx *gorm.DB, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
		return wrap(err, "create invoice")
	}
	return replaceInvoiceItems(tx, model)
}

func replaceInvoiceItems(tx *gorm.DB, model *models.InvoiceModel) error {
	if err := tx.Where("invoice_id = ?", model.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return wrap(err, "delete invoice items")
	}
	if len(model.Items) == 0 {
		return nil
	}
	return wrap(tx.Create(&model.Items).Error, "create invoice items")
}

func toInvoices(rows []models.InvoiceModel) []invoicing.Invoice {
	invoices := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
