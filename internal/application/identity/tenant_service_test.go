package identity

import (
	"context"
	"testing"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantService_Get(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTenantRepository)
	svc := NewTenantService(repo, nil)

	tenant, err := identity.NewTenant(uuid.New(), "Acme", "billing@acme.test")
	require.NoError(t, err)
	repo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)

	resp, err := svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Name)
	assert.Equal(t, "trial", resp.SubscriptionStatus)

	missing := uuid.New()
	repo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	_, err = svc.Get(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTenantService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := new(MockTenantRepository)
	svc := NewTenantService(repo, nil)

	tenant, err := identity.NewTenant(uuid.New(), "Acme", "billing@acme.test")
	require.NoError(t, err)
	repo.On("FindByID", ctx, tenant.ID).Return(tenant, nil)
	repo.On("Save", ctx, tenant).Return(nil)

	resp, err := svc.UpdateProfile(ctx, tenant.ID, UpdateTenantInput{
		Name:    "Acme Trading LLC",
		Email:   "Billing@Acme.test",
		Address: "King Fahd Rd, Riyadh",
		TaxID:   "310122393500003",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Trading LLC", resp.Name)
	assert.Equal(t, "billing@acme.test", resp.Email)
	assert.Equal(t, "310122393500003", resp.TaxID)
	assert.Empty(t, tenant.GetDomainEvents())

	_, err = svc.UpdateProfile(ctx, tenant.ID, UpdateTenantInput{Name: "", Email: "billing@acme.test"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_TENANT_NAME", de.Code)
}
