package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail looks up an account by its normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByProvider looks up a federated account by provider subject
	FindByProvider(ctx context.Context, provider AuthProvider, providerUID string) (*User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)

	Save(ctx context.Context, user *User) error

	// CreateWithTenant inserts a new account and its tenant in one transaction
	CreateWithTenant(ctx context.Context, user *User, tenant *Tenant) error
}
