package persistence

import (
	"fmt"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInvoiceRepository_SaveAndFindWithPayments(t *testing.T) {
	db := newTestDB(t)
	invoices := NewGormInvoiceRepository(db)
	payments := NewGormPaymentRepository(db)
	tenant := seedTenant(t, db)
	ctx := t.Context()

	due := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)
	invoice := newInvoice(t, tenant.ID, "INV-2026-00001", due)
	require.NoError(t, invoice.SetPresentation(invoicing.TemplateArabic, true))
	require.NoError(t, invoices.Save(ctx, invoice))

	paidOn := time.Now().UTC().Truncate(time.Second)
	first, err := invoice.RecordPayment(decimal.NewFromInt(400), paidOn.Add(-time.Hour), "bank transfer", "TRX-1", "")
	require.NoError(t, err)
	second, err := invoice.RecordPayment(decimal.NewFromInt(200), paidOn, "cash", "", "front desk")
	require.NoError(t, err)
	require.NoError(t, payments.Create(ctx, first))
	require.NoError(t, payments.Create(ctx, second))

	found, err := invoices.FindByIDForTenant(ctx, tenant.ID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", found.InvoiceNumber)
	assert.Equal(t, invoicing.TemplateArabic, found.Template)
	assert.True(t, found.IncludeQR)
	assert.Equal(t, "300000000000003", found.Client.TaxID)
	assert.True(t, found.DueDate.Equal(due))
	require.Len(t, found.Items, 1)
	assert.True(t, found.Total.Equal(decimal.NewFromInt(1150)))

	require.Len(t, found.Payments, 2)
	assert.Equal(t, "bank transfer", found.Payments[0].Method)
	assert.Equal(t, "cash", found.Payments[1].Method)
	assert.True(t, found.AmountPaid().Equal(decimal.NewFromInt(600)))
	assert.True(t, found.BalanceDue().Equal(decimal.NewFromInt(550)))

	t.Run("status change keeps payments", func(t *testing.T) {
		require.NoError(t, found.ChangeStatus(invoicing.InvoiceStatusSent))
		require.NoError(t, invoices.SaveWithLock(ctx, found))
		assert.Equal(t, 2, found.Version)

		reloaded, err := invoices.FindByIDForTenant(ctx, tenant.ID, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, invoicing.InvoiceStatusSent, reloaded.Status)
		require.NotNil(t, reloaded.SentAt)
		assert.Len(t, reloaded.Payments, 2)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		invoice.SetNotes("stale")
		err := invoices.SaveWithLock(ctx, invoice)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("other tenant cannot see it", func(t *testing.T) {
		_, err := invoices.FindByIDForTenant(ctx, uuid.New(), invoice.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_DuplicateNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenant := seedTenant(t, db)
	ctx := t.Context()
	due := time.Now().UTC().Add(time.Hour)

	require.NoError(t, repo.Save(ctx, newInvoice(t, tenant.ID, "INV-2026-00001", due)))
	err := repo.Save(ctx, newInvoice(t, tenant.ID, "INV-2026-00001", due))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	require.NoError(t, repo.Save(ctx, newInvoice(t, uuid.New(), "INV-2026-00001", due)))
}

func TestGormInvoiceRepository_FindOverdueCandidates(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenant := seedTenant(t, db)
	other := seedTenant(t, db)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Second)

	oldest := newInvoice(t, other.ID, "INV-2026-00001", now.Add(-72*time.Hour))
	require.NoError(t, repo.Save(ctx, oldest))

	sent := newInvoice(t, tenant.ID, "INV-2026-00002", now.Add(-24*time.Hour))
	require.NoError(t, sent.ChangeStatus(invoicing.InvoiceStatusSent))
	require.NoError(t, repo.Save(ctx, sent))

	notDue := newInvoice(t, tenant.ID, "INV-2026-00003", now.Add(24*time.Hour))
	require.NoError(t, repo.Save(ctx, notDue))

	cancelled := newInvoice(t, tenant.ID, "INV-2026-00004", now.Add(-48*time.Hour))
	require.NoError(t, cancelled.ChangeStatus(invoicing.InvoiceStatusCancelled))
	require.NoError(t, repo.Save(ctx, cancelled))

	candidates, err := repo.FindOverdueCandidates(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, oldest.ID, candidates[0].ID)
	assert.Equal(t, sent.ID, candidates[1].ID)

	limited, err := repo.FindOverdueCandidates(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, oldest.ID, limited[0].ID)

	t.Run("marking overdue removes the candidate", func(t *testing.T) {
		invoice := candidates[0]
		require.True(t, invoice.MarkOverdue(now))
		require.NoError(t, repo.SaveWithLock(ctx, &invoice))

		remaining, err := repo.FindOverdueCandidates(ctx, now, 0)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, sent.ID, remaining[0].ID)
	})
}

func TestGormInvoiceRepository_AggregatesAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenant := seedTenant(t, db)
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Second)

	customerID := uuid.New()
	for i := 1; i <= 3; i++ {
		invoice := newInvoice(t, tenant.ID, fmt.Sprintf("INV-2026-%05d", i), now.Add(time.Duration(i)*24*time.Hour))
		switch i {
		case 2:
			require.NoError(t, invoice.SetClient(invoicing.Client{Name: "Hooli", Email: "ar@hooli.test"}, &customerID))
		case 3:
			require.NoError(t, invoice.ChangeStatus(invoicing.InvoiceStatusCancelled))
		}
		require.NoError(t, repo.Save(ctx, invoice))
	}

	total, err := repo.SumTotals(ctx, tenant.ID, invoicing.InvoiceStatusCancelled)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(2300)), "got %s", total)

	all, err := repo.SumTotals(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, all.Equal(decimal.NewFromInt(3450)), "got %s", all)

	empty, err := repo.SumTotals(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	byStatus, err := repo.CountByStatus(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byStatus[invoicing.InvoiceStatusDraft])
	assert.Equal(t, int64(1), byStatus[invoicing.InvoiceStatusCancelled])

	filter := shared.DefaultFilter()
	filter.Filters["customer_id"] = customerID
	byCustomer, err := repo.FindAllForTenant(ctx, tenant.ID, filter)
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, "Hooli", byCustomer[0].Client.Name)

	dueSoon := shared.DefaultFilter()
	dueSoon.Filters["due_before"] = now.Add(36 * time.Hour)
	count, err := repo.CountForTenant(ctx, tenant.ID, dueSoon)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	search := shared.DefaultFilter()
	search.Search = "inv-2026-0000"
	search.OrderBy = "invoice_number"
	search.OrderDir = "asc"
	ordered, err := repo.FindAllForTenant(ctx, tenant.ID, search)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, "INV-2026-00001", ordered[0].InvoiceNumber)
	assert.Equal(t, "INV-2026-00003", ordered[2].InvoiceNumber)
}

func TestGormInvoiceRepository_GenerateInvoiceNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInvoiceRepository(db)
	tenant := seedTenant(t, db)
	ctx := t.Context()
	year := time.Now().Year()

	for i := 1; i <= 3; i++ {
		number, err := repo.GenerateInvoiceNumber(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-%05d", year, i), number)
		require.NoError(t, repo.Save(ctx, newInvoice(t, tenant.ID, number, time.Now().Add(time.Hour))))
	}

	t.Run("continues past five digits", func(t *testing.T) {
		for _, seq := range []int{99999, 100000} {
			number := fmt.Sprintf("INV-%d-%05d", year, seq)
			require.NoError(t, repo.Save(ctx, newInvoice(t, tenant.ID, number, time.Now().Add(time.Hour))))
		}

		number, err := repo.GenerateInvoiceNumber(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-100001", year), number)
	})
}
