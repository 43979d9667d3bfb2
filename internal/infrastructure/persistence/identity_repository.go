package persistence

import (
	"context"
	"strings"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// first loads one row matching query and converts it; no row maps to shared.ErrNotFound
func first[M any, D any](ctx context.Context, db *gorm.DB, op string, toDomain func(*M) D, query string, args ...any) (D, error) {
	var model M
	if err := db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		var zero D
		return zero, notFoundOr(err, op)
	}
	return toDomain(&model), nil
}

// GormTenantRepository stores tenant profiles. Tenants are created together with
// their owner by GormUserRepository.CreateWithTenant.
type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return first(ctx, r.db, "find tenant", (*models.TenantModel).ToDomain, "id = ?", id)
}

func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return wrap(r.db.WithContext(ctx).Save(models.TenantModelFromDomain(tenant)).Error, "save tenant")
}

// GormUserRepository stores user accounts; emails are matched lower-cased and trimmed
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return first(ctx, r.db, "find user", (*models.UserModel).ToDomain, "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	return first(ctx, r.db, "find user by email", (*models.UserModel).ToDomain, "email = ?", email)
}

// FindByProvider looks up a federated account by the provider's subject
func (r *GormUserRepository) FindByProvider(ctx context.Context, provider identity.AuthProvider, providerUID string) (*identity.User, error) {
	if providerUID == "" {
		return nil, shared.ErrNotFound
	}
	return first(ctx, r.db, "find user by provider", (*models.UserModel).ToDomain,
		"provider = ? AND provider_uid = ?", provider, providerUID)
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ?", normalizeEmail(email)).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, wrap(err, "count users by email")
	}
	return n > 0, nil
}

func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	return wrap(r.db.WithContext(ctx).Save(models.UserModelFromDomain(user)).Error, "save user")
}

// CreateWithTenant registers a tenant and its owner atomically
func (r *GormUserRepository) CreateWithTenant(ctx context.Context, user *identity.User, tenant *identity.Tenant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := wrap(tx.Create(models.TenantModelFromDomain(tenant)).Error, "create tenant"); err != nil {
			return err
		}
		return wrap(tx.Create(models.UserModelFromDomain(user)).Error, "create user")
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ identity.TenantRepository = (*GormTenantRepository)(nil)
	_ identity.UserRepository   = (*GormUserRepository)(nil)
)
