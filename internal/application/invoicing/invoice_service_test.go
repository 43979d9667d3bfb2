package invoicing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDraftInvoice(t *testing.T, tenantID uuid.UUID) *invoicing.Invoice {
	t.Helper()
	client, err := invoicing.NewClient("Acme Ltd", "billing@acme.test", "", "")
	require.NoError(t, err)
	inv, err := invoicing.NewInvoice(tenantID, "INV-2026-00001", client, dec("15"))
	require.NoError(t, err)
	item, err := invoicing.NewLineItem(invoicing.LineItemKindProduct, "Widget", dec("2"), dec("100"))
	require.NoError(t, err)
	require.NoError(t, inv.ReplaceItems([]invoicing.LineItem{*item}))
	inv.ClearDomainEvents()
	return inv
}

func setupInvoiceService() (*InvoiceService, *MockInvoiceRepository, *MockPaymentRepository, *MockTenantRepository) {
	invoiceRepo := new(MockInvoiceRepository)
	paymentRepo := new(MockPaymentRepository)
	tenantRepo := new(MockTenantRepository)
	svc := NewInvoiceService(invoiceRepo, paymentRepo, tenantRepo, nil, nil)
	return svc, invoiceRepo, paymentRepo, tenantRepo
}

func TestInvoiceService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("direct invoice", func(t *testing.T) {
		svc, invoiceRepo, _, _ := setupInvoiceService()
		invoiceRepo.On("GenerateInvoiceNumber", ctx, tenantID).Return("INV-2026-00007", nil)
		invoiceRepo.On("Save", ctx, mock.AnythingOfType("*invoicing.Invoice")).Return(nil)

		due := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
		resp, err := svc.Create(ctx, tenantID, CreateInvoiceRequest{
			ClientInput: ClientInput{Name: "Acme Ltd", Email: "billing@acme.test", TaxID: "311111111100003"},
			Items:       []LineItemInput{{Kind: "service", Name: "Consulting", Quantity: amount("3"), UnitPrice: amount("80")}},
			TaxRate:     amount("15"),
			DueDate:     &due,
			Template:    "arabic",
			IncludeQR:   true,
		})

		require.NoError(t, err)
		assert.Nil(t, resp.QuoteID)
		assert.Equal(t, "draft", resp.Status)
		assert.True(t, dec("276").Equal(resp.Total))
		assert.True(t, dec("276").Equal(resp.BalanceDue))
		assert.True(t, resp.AmountPaid.IsZero())
		assert.Equal(t, "arabic", resp.Template)
		assert.True(t, resp.IncludeQR)
		assert.Equal(t, due, resp.DueDate)
		assert.Equal(t, "311111111100003", resp.ClientTaxID)
	})

	t.Run("unknown template", func(t *testing.T) {
		svc, invoiceRepo, _, _ := setupInvoiceService()
		invoiceRepo.On("GenerateInvoiceNumber", ctx, tenantID).Return("INV-2026-00008", nil)

		_, err := svc.Create(ctx, tenantID, CreateInvoiceRequest{
			ClientInput: ClientInput{Name: "Acme Ltd", Email: "billing@acme.test"},
			Template:    "french",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TEMPLATE", domainErr.Code)
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	tests := []struct {
		name      string
		from      []invoicing.InvoiceStatus
		target    string
		wantState bool
		wantCode  string
	}{
		{name: "draft to sent", target: "sent"},
		{name: "draft to cancelled", target: "cancelled"},
		{name: "sent to paid", from: []invoicing.InvoiceStatus{invoicing.InvoiceStatusSent}, target: "paid"},
		{name: "draft to paid", target: "paid", wantState: true},
		{name: "paid is terminal", from: []invoicing.InvoiceStatus{invoicing.InvoiceStatusSent, invoicing.InvoiceStatusPaid}, target: "cancelled", wantState: true},
		{name: "unknown status", target: "void", wantCode: "INVALID_STATUS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, invoiceRepo, _, _ := setupInvoiceService()
			inv := newDraftInvoice(t, tenantID)
			for _, s := range tt.from {
				require.NoError(t, inv.ChangeStatus(s))
			}
			invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
			invoiceRepo.On("SaveWithLock", ctx, inv).Return(nil)

			resp, err := svc.ChangeStatus(ctx, tenantID, inv.ID, ChangeStatusRequest{Status: tt.target})

			switch {
			case tt.wantState:
				assert.True(t, shared.IsStateError(err))
				invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
			case tt.wantCode != "":
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tt.wantCode, domainErr.Code)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.target, resp.Status)
			}
		})
	}
}

func TestInvoiceService_RecordPayment(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("records without changing status", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, _ := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		require.NoError(t, inv.ChangeStatus(invoicing.InvoiceStatusSent))
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
		paymentRepo.On("Create", mock.Anything, mock.AnythingOfType("*invoicing.Payment")).Return(nil)

		resp, err := svc.RecordPayment(ctx, tenantID, inv.ID, RecordPaymentRequest{
			Amount: amount("230"),
			Method: "bank transfer",
		})

		require.NoError(t, err)
		assert.Equal(t, "sent", resp.Status)
		assert.True(t, dec("230").Equal(resp.Total))
		assert.True(t, dec("230").Equal(resp.AmountPaid))
		assert.True(t, resp.BalanceDue.IsZero())
		require.Len(t, resp.Payments, 1)
		assert.Equal(t, "bank transfer", resp.Payments[0].Method)
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("over-payment is accepted", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, _ := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
		paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := svc.RecordPayment(ctx, tenantID, inv.ID, RecordPaymentRequest{Amount: amount("300"), Method: "cash"})

		require.NoError(t, err)
		assert.True(t, dec("-70").Equal(resp.BalanceDue))
	})

	t.Run("missing amount is rejected", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, _ := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

		_, err := svc.RecordPayment(ctx, tenantID, inv.ID, RecordPaymentRequest{Method: "cash"})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("cancelled invoice", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, _ := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		require.NoError(t, inv.ChangeStatus(invoicing.InvoiceStatusCancelled))
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)

		_, err := svc.RecordPayment(ctx, tenantID, inv.ID, RecordPaymentRequest{Amount: amount("10"), Method: "cash"})

		assert.True(t, shared.IsStateError(err))
		paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("persistence failure", func(t *testing.T) {
		svc, invoiceRepo, paymentRepo, _ := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, inv.ID).Return(inv, nil)
		paymentRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		_, err := svc.RecordPayment(ctx, tenantID, inv.ID, RecordPaymentRequest{Amount: amount("10"), Method: "cash"})

		assert.EqualError(t, err, "disk full")
	})
}

func TestInvoiceService_Compliance(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newTenant := func(t *testing.T, taxID string) *identity.Tenant {
		tenant, err := identity.NewTenant(tenantID, "Sunrise Trading", "owner@sunrise.test")
		require.NoError(t, err)
		require.NoError(t, tenant.UpdateProfile("Sunrise Trading", "owner@sunrise.test", "", "", taxID))
		return tenant
	}

	t.Run("tlv by default", func(t *testing.T) {
		svc, invoiceRepo, _, tenantRepo := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
		tenantRepo.On("FindByID", ctx, tenantID).Return(newTenant(t, "300000000000003"), nil)

		resp, err := svc.Compliance(ctx, tenantID, inv.ID, "")

		require.NoError(t, err)
		assert.Equal(t, "tlv", resp.Encoding)
		assert.Equal(t, "230.00", resp.Payload.Total)
		assert.Equal(t, "30.00", resp.Payload.TaxAmount)
		decoded, err := invoicing.DecodeTLV(resp.Encoded)
		require.NoError(t, err)
		assert.Equal(t, resp.Payload, decoded)
	})

	t.Run("json", func(t *testing.T) {
		svc, invoiceRepo, _, tenantRepo := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
		tenantRepo.On("FindByID", ctx, tenantID).Return(newTenant(t, "300000000000003"), nil)

		resp, err := svc.Compliance(ctx, tenantID, inv.ID, invoicing.PayloadEncodingJSON)

		require.NoError(t, err)
		assert.Contains(t, resp.Encoded, `"vatNumber":"300000000000003"`)
	})

	t.Run("tenant without tax id", func(t *testing.T) {
		svc, invoiceRepo, _, tenantRepo := setupInvoiceService()
		inv := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindByIDForTenant", ctx, tenantID, inv.ID).Return(inv, nil)
		tenantRepo.On("FindByID", ctx, tenantID).Return(newTenant(t, ""), nil)

		_, err := svc.Compliance(ctx, tenantID, inv.ID, "")

		assert.ErrorIs(t, err, invoicing.ErrMissingTaxID)
	})
}

func TestInvoiceService_SweepOverdue(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	asOf := time.Now().Add(45 * 24 * time.Hour)

	t.Run("marks past-due invoices", func(t *testing.T) {
		svc, invoiceRepo, _, _ := setupInvoiceService()
		due := newDraftInvoice(t, tenantID)
		notDue := newDraftInvoice(t, tenantID)
		require.NoError(t, notDue.SetDueDate(asOf.Add(24*time.Hour)))
		invoiceRepo.On("FindOverdueCandidates", ctx, asOf, 100).Return([]invoicing.Invoice{*due, *notDue}, nil)
		invoiceRepo.On("SaveWithLock", ctx, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
			return inv.ID == due.ID && inv.Status == invoicing.InvoiceStatusOverdue
		})).Return(nil).Once()

		marked, err := svc.SweepOverdue(ctx, asOf, 100)

		require.NoError(t, err)
		assert.Equal(t, 1, marked)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("continues past failures", func(t *testing.T) {
		svc, invoiceRepo, _, _ := setupInvoiceService()
		first := newDraftInvoice(t, tenantID)
		second := newDraftInvoice(t, tenantID)
		invoiceRepo.On("FindOverdueCandidates", ctx, asOf, 10).Return([]invoicing.Invoice{*first, *second}, nil)
		invoiceRepo.On("SaveWithLock", ctx, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
			return inv.ID == first.ID
		})).Return(errors.New("conflict"))
		invoiceRepo.On("SaveWithLock", ctx, mock.MatchedBy(func(inv *invoicing.Invoice) bool {
			return inv.ID == second.ID
		})).Return(nil)

		marked, err := svc.SweepOverdue(ctx, asOf, 10)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "conflict")
		assert.Equal(t, 1, marked)
	})
}
