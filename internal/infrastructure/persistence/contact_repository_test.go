package persistence

import (
	"testing"

	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustContact(t *testing.T, name, email, phone string) partner.Contact {
	t.Helper()
	contact, err := partner.NewContact(name, email, phone, "", "")
	require.NoError(t, err)
	return contact
}

func TestGormCustomerRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	tenant := seedTenant(t, db)
	ctx := t.Context()

	names := []struct{ name, email, phone string }{
		{"Globex", "ap@globex.test", "+1 555 0100"},
		{"Initech", "billing@initech.test", "+1 555 0200"},
		{"Hooli", "ar@hooli.test", "+1 555 0300"},
	}
	var globex *partner.Customer
	for _, n := range names {
		customer, err := partner.NewCustomer(tenant.ID, mustContact(t, n.name, n.email, n.phone))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, customer))
		if globex == nil {
			globex = customer
		}
	}
	other, err := partner.NewCustomer(uuid.New(), mustContact(t, "Globex", "ap@globex.test", ""))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	t.Run("find and update", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenant.ID, globex.ID)
		require.NoError(t, err)
		assert.Equal(t, "Globex", found.Name)

		contact, err := partner.NewContact("Globex Corp", "ap@globex.test", "", "1 Main St", "300000000000003")
		require.NoError(t, err)
		require.NoError(t, found.Update(contact, "net 30"))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByIDForTenant(ctx, tenant.ID, globex.ID)
		require.NoError(t, err)
		assert.Equal(t, "Globex Corp", reloaded.Name)
		assert.Equal(t, "300000000000003", reloaded.TaxID)
		assert.Equal(t, "net 30", reloaded.Notes)
	})

	t.Run("search and sort", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "name"
		filter.OrderDir = "asc"
		all, err := repo.FindAllForTenant(ctx, tenant.ID, filter)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Globex Corp", all[0].Name)
		assert.Equal(t, "Initech", all[2].Name)

		filter.Search = "0300"
		count, err := repo.CountForTenant(ctx, tenant.ID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("email exists per tenant", func(t *testing.T) {
		exists, err := repo.ExistsByEmail(ctx, tenant.ID, " AR@hooli.test")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByEmail(ctx, uuid.New(), "ar@hooli.test")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteForTenant(ctx, uuid.New(), globex.ID), shared.ErrNotFound)
		require.NoError(t, repo.DeleteForTenant(ctx, tenant.ID, globex.ID))
		_, err := repo.FindByIDForTenant(ctx, tenant.ID, globex.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteForTenant(ctx, tenant.ID, globex.ID), shared.ErrNotFound)
	})
}

func TestGormSupplierRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSupplierRepository(db)
	tenant := seedTenant(t, db)
	ctx := t.Context()

	supplier, err := partner.NewSupplier(tenant.ID, mustContact(t, "Paper Mill", "orders@papermill.test", ""))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, supplier))

	found, err := repo.FindByIDForTenant(ctx, tenant.ID, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "orders@papermill.test", found.Email)

	_, err = repo.FindByIDForTenant(ctx, uuid.New(), supplier.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	filter := shared.DefaultFilter()
	filter.Search = "mill"
	suppliers, err := repo.FindAllForTenant(ctx, tenant.ID, filter)
	require.NoError(t, err)
	assert.Len(t, suppliers, 1)

	require.NoError(t, repo.DeleteForTenant(ctx, tenant.ID, supplier.ID))
	count, err := repo.CountForTenant(ctx, tenant.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, count)
}
