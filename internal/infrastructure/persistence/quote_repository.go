package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyConverted is returned when a second conversion of the same quote races the first
var ErrAlreadyConverted = shared.NewStateError("Quote has already been converted")

// GormQuoteRepository implements invoicing.QuoteRepository using GORM
type GormQuoteRepository struct {
	db       *gorm.DB
	numberer *documentNumberer
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{
		db:       db,
		numberer: newDocumentNumberer(db, &models.QuoteModel{}, "quote_number", QuoteNumberPrefix),
	}
}

// FindByIDForTenant finds a quote by ID within a tenant
func (r *GormQuoteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Quote, error) {
	var model models.QuoteModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderByPosition).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFoundOr(err, "find quote")
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all quotes for a tenant with filtering
func (r *GormQuoteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]invoicing.Quote, error) {
	var rows []models.QuoteModel
	query := paginate(r.scoped(ctx, tenantID, filter), filter, QuoteSortFields).Preload("Items", orderByPosition)
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrap(err, "list quotes")
	}

	quotes := make([]invoicing.Quote, len(rows))
	for i := range rows {
		quotes[i] = *rows[i].ToDomain()
	}
	return quotes, nil
}

// CountForTenant counts quotes for a tenant with optional filters
func (r *GormQuoteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.scoped(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, wrap(err, "count quotes")
	}
	return count, nil
}

// CountByStatus counts quotes per status for a tenant
func (r *GormQuoteRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[invoicing.QuoteStatus]int64, error) {
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.QuoteModel{}).
		Select("status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, wrap(err, "count quotes by status")
	}

	counts := make(map[invoicing.QuoteStatus]int64, len(rows))
	for _, row := range rows {
		counts[invoicing.QuoteStatus(row.Status)] = row.Count
	}
	return counts, nil
}

// Save creates a new quote with its items
func (r *GormQuoteRepository) Save(ctx context.Context, quote *invoicing.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.QuoteModelFromDomain(quote)
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return wrap(err, "create quote")
		}
		return replaceQuoteItems(tx, model)
	})
}

// SaveWithLock updates a quote with optimistic locking (version check)
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, quote *invoicing.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateQuote(tx, quote)
	})
}

// SaveConversion persists the converted quote and the new invoice in one transaction
func (r *GormQuoteRepository) SaveConversion(ctx context.Context, quote *invoicing.Quote, invoice *invoicing.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateQuote(tx, quote); err != nil {
			return err
		}
		return createInvoice(tx, invoice)
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		return ErrAlreadyConverted
	}
	return err
}

// GenerateQuoteNumber generates a unique quote number for a tenant
// Format: QT-YYYY-NNNNN (e.g., QT-2026-00001)
func (r *GormQuoteRepository) GenerateQuoteNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	return r.numberer.Next(ctx, tenantID)
}

func (r *GormQuoteRepository) scoped(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return whereSearch(query, filter.Search, "quote_number", "client_name", "client_email")
}

// updateQuote writes the quote row guarded by its version, then its items
func updateQuote(tx *gorm.DB, quote *invoicing.Quote) error {
	expected := quote.Version
	now := time.Now()

	model := models.QuoteModelFromDomain(quote)
	result := tx.Model(&models.QuoteModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", quote.ID, quote.TenantID, expected).
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
			"valid_until":    model.ValidUntil,
			"notes":          model.Notes,
			"sent_at":        model.SentAt,
			"converted_at":   model.ConvertedAt,
			"invoice_id":     model.InvoiceID,
			"version":        expected + 1,
			"updated_at":     now,
		})
	if result.Error != nil {
		return wrap(result.Error, "update quote")
	}
	if result.RowsAffected == 0 {
		return versionMiss(tx, &models.QuoteModel{}, quote.TenantID, quote.ID)
	}

	if err := replaceQuoteItems(tx, model); err != nil {
		return err
	}
	quote.Version = expected + 1
	quote.UpdatedAt = now
	return nil
}

func replaceQuoteItems(tx *gorm.DB, model *models.QuoteModel) error {
	if err := tx.Where("quote_id = ?", model.ID).Delete(&models.QuoteItemModel{}).Error; err != nil {
		return wrap(err, "delete quote items")
	}
	if len(model.Items) == 0 {
		return nil
	}
	return wrap(tx.Create(&model.Items).Error, "create quote items")
}

// versionMiss tells a missing row apart from a stale version
func versionMiss(tx *gorm.DB, model any, tenantID, id uuid.UUID) error {
	var count int64
	if err := tx.Model(model).Where("id = ? AND tenant_id = ?", id, tenantID).Count(&count).Error; err != nil {
		return wrap(err, "check version")
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

type statusCount struct {
	Status string
	Count  int64
}

var _ invoicing.QuoteRepository = (*GormQuoteRepository)(nil)
