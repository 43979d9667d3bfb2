package persistence

import (
	"github.com/erp/invoicing/internal/domain/catalog"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository stores a tenant's product catalog
type GormProductRepository struct {
	tenantStore[models.ProductModel, catalog.Product, *models.ProductModel]
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{tenantStore[models.ProductModel, catalog.Product, *models.ProductModel]{
		db: db, noun: "product", searchIn: []string{"name", "description"}, sortable: CatalogSortFields, narrow: byCategory,
	}}
}

// GormServiceRepository stores a tenant's billable services
type GormServiceRepository struct {
	tenantStore[models.ServiceModel, catalog.Service, *models.ServiceModel]
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{tenantStore[models.ServiceModel, catalog.Service, *models.ServiceModel]{
		db: db, noun: "service", searchIn: []string{"name", "description"}, sortable: CatalogSortFields, narrow: byCategory,
	}}
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.ServiceRepository = (*GormServiceRepository)(nil)
)
