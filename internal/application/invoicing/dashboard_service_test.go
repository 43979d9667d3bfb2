package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Summary(t *testing.T) {
	tenantID := uuid.New()

	setup := func() (*DashboardService, *MockQuoteRepository, *MockInvoiceRepository, *MockPaymentRepository, *MockCustomerRepository) {
		quoteRepo := new(MockQuoteRepository)
		invoiceRepo := new(MockInvoiceRepository)
		paymentRepo := new(MockPaymentRepository)
		customerRepo := new(MockCustomerRepository)
		return NewDashboardService(quoteRepo, invoiceRepo, paymentRepo, customerRepo), quoteRepo, invoiceRepo, paymentRepo, customerRepo
	}

	t.Run("aggregates all figures", func(t *testing.T) {
		svc, quoteRepo, invoiceRepo, paymentRepo, customerRepo := setup()
		quoteRepo.On("CountByStatus", mock.Anything, tenantID).
			Return(map[invoicing.QuoteStatus]int64{invoicing.QuoteStatusDraft: 3, invoicing.QuoteStatusConverted: 1}, nil)
		invoiceRepo.On("CountByStatus", mock.Anything, tenantID).
			Return(map[invoicing.InvoiceStatus]int64{invoicing.InvoiceStatusSent: 2}, nil)
		invoiceRepo.On("SumTotals", mock.Anything, tenantID, []invoicing.InvoiceStatus{invoicing.InvoiceStatusCancelled}).
			Return(dec("1000"), nil)
		paymentRepo.On("SumForTenant", mock.Anything, tenantID).Return(dec("400"), nil)
		customerRepo.On("CountForTenant", mock.Anything, tenantID, mock.AnythingOfType("shared.Filter")).Return(int64(5), nil)

		summary, err := svc.Summary(context.Background(), tenantID)

		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.QuotesByStatus["draft"])
		assert.Equal(t, int64(0), summary.QuotesByStatus["sent"])
		assert.Len(t, summary.QuotesByStatus, len(invoicing.AllQuoteStatuses))
		assert.Equal(t, int64(2), summary.InvoicesByStatus["sent"])
		assert.True(t, dec("600").Equal(summary.Outstanding))
		assert.Equal(t, int64(5), summary.CustomerCount)
	})

	t.Run("over-payment never yields negative outstanding", func(t *testing.T) {
		svc, quoteRepo, invoiceRepo, paymentRepo, customerRepo := setup()
		quoteRepo.On("CountByStatus", mock.Anything, tenantID).Return(map[invoicing.QuoteStatus]int64{}, nil)
		invoiceRepo.On("CountByStatus", mock.Anything, tenantID).Return(map[invoicing.InvoiceStatus]int64{}, nil)
		invoiceRepo.On("SumTotals", mock.Anything, tenantID, mock.Anything).Return(dec("100"), nil)
		paymentRepo.On("SumForTenant", mock.Anything, tenantID).Return(dec("150"), nil)
		customerRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(0), nil)

		summary, err := svc.Summary(context.Background(), tenantID)

		require.NoError(t, err)
		assert.True(t, summary.Outstanding.IsZero())
	})

	t.Run("first failure wins", func(t *testing.T) {
		svc, quoteRepo, invoiceRepo, paymentRepo, customerRepo := setup()
		boom := errors.New("db down")
		quoteRepo.On("CountByStatus", mock.Anything, tenantID).Return(nil, boom)
		invoiceRepo.On("CountByStatus", mock.Anything, tenantID).Return(map[invoicing.InvoiceStatus]int64{}, nil)
		invoiceRepo.On("SumTotals", mock.Anything, tenantID, mock.Anything).Return(dec("0"), nil)
		paymentRepo.On("SumForTenant", mock.Anything, tenantID).Return(dec("0"), nil)
		customerRepo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(0), nil)

		_, err := svc.Summary(context.Background(), tenantID)

		assert.ErrorIs(t, err, boom)
	})
}

func TestPaymentService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	paymentRepo := new(MockPaymentRepository)
	svc := NewPaymentService(paymentRepo)

	invoiceID := uuid.New()
	payment, err := invoicing.NewPayment(tenantID, invoiceID, dec("50"), time.Now(), "cash")
	require.NoError(t, err)

	matcher := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["invoice_id"] == invoiceID && f.OrderBy == "payment_date" && f.PageSize == 20
	})
	paymentRepo.On("FindAllForTenant", ctx, tenantID, matcher).Return([]invoicing.Payment{*payment}, nil)
	paymentRepo.On("CountForTenant", ctx, tenantID, matcher).Return(int64(1), nil)

	items, total, err := svc.List(ctx, tenantID, PaymentListFilter{InvoiceID: invoiceID.String()})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, invoiceID, items[0].InvoiceID)
}
