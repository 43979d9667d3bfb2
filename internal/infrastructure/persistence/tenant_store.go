package persistence

import (
	"context"

	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tenantRecord is a GORM model that maps to and from a domain aggregate D
type tenantRecord[M any, D any] interface {
	*M
	ToDomain() *D
	FromDomain(*D)
}

// tenantStore implements shared.TenantRepository for one model. Every query is
// scoped by tenant_id; narrow adds filter-specific conditions after the search.
type tenantStore[M any, D any, R tenantRecord[M, D]] struct {
	db       *gorm.DB
	noun     string
	searchIn []string
	sortable map[string]bool
	narrow   func(*gorm.DB, shared.Filter) *gorm.DB
}

func (s tenantStore[M, D, R]) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*D, error) {
	var model M
	err := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	if err != nil {
		return nil, notFoundOr(err, "find "+s.noun)
	}
	return R(&model).ToDomain(), nil
}

func (s tenantStore[M, D, R]) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]D, error) {
	var rows []M
	if err := paginate(s.scoped(ctx, tenantID, filter), filter, s.sortable).Find(&rows).Error; err != nil {
		return nil, wrap(err, "list "+s.noun+"s")
	}
	out := make([]D, 0, len(rows))
	for i := range rows {
		out = append(out, *R(&rows[i]).ToDomain())
	}
	return out, nil
}

func (s tenantStore[M, D, R]) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var n int64
	if err := s.scoped(ctx, tenantID, filter).Count(&n).Error; err != nil {
		return 0, wrap(err, "count "+s.noun+"s")
	}
	return n, nil
}

// Save inserts or fully updates the row
func (s tenantStore[M, D, R]) Save(ctx context.Context, aggregate *D) error {
	var model M
	R(&model).FromDomain(aggregate)
	return wrap(s.db.WithContext(ctx).Save(&model).Error, "save "+s.noun)
}

// DeleteForTenant reports shared.ErrNotFound when the tenant owns no such row
func (s tenantStore[M, D, R]) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(new(M))
	switch {
	case res.Error != nil:
		return wrap(res.Error, "delete "+s.noun)
	case res.RowsAffected == 0:
		return shared.ErrNotFound
	}
	return nil
}

// existsWhere reports whether the tenant has a row matching query
func (s tenantStore[M, D, R]) existsWhere(ctx context.Context, tenantID uuid.UUID, query string, args ...any) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(new(M)).
		Where("tenant_id = ?", tenantID).
		Where(query, args...).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, wrap(err, "check "+s.noun)
	}
	return n > 0, nil
}

func (s tenantStore[M, D, R]) scoped(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := whereSearch(s.db.WithContext(ctx).Model(new(M)).Where("tenant_id = ?", tenantID), filter.Search, s.searchIn...)
	if s.narrow != nil {
		query = s.narrow(query, filter)
	}
	return query
}

// byCategory narrows catalog listings to filter.Filters["category"]
func byCategory(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if category, ok := filter.Filters["category"].(string); ok && category != "" {
		return query.Where("category = ?", category)
	}
	return query
}
