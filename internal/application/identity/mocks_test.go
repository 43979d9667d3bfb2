package identity

import (
	"context"
	"errors"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByProvider(ctx context.Context, provider identity.AuthProvider, providerUID string) (*identity.User, error) {
	args := m.Called(ctx, provider, providerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CreateWithTenant(ctx context.Context, user *identity.User, tenant *identity.Tenant) error {
	args := m.Called(ctx, user, tenant)
	return args.Error(0)
}

// MockTenantRepository is a mock implementation of identity.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

// stubVerifier accepts exactly one token
type stubVerifier struct {
	token    string
	identity auth.FederatedIdentity
}

func (v *stubVerifier) Verify(_ context.Context, idToken string) (*auth.FederatedIdentity, error) {
	if idToken != v.token {
		return nil, auth.ErrFederatedTokenInvalid
	}
	fid := v.identity
	return &fid, nil
}

var errStorage = errors.New("connection refused")
