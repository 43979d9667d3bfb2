package main

import (
	"context"

	invoicingapp "github.com/erp/invoicing/internal/application/invoicing"
	partnerapp "github.com/erp/invoicing/internal/application/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/realtime"
	"github.com/google/uuid"
)

// liveSources are the list queries behind the live collections
type liveSources struct {
	quotes interface {
		List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.QuoteListFilter) ([]invoicingapp.QuoteListItemResponse, int64, error)
	}
	invoices interface {
		List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.InvoiceListFilter) ([]invoicingapp.InvoiceListItemResponse, int64, error)
	}
	customers interface {
		List(ctx context.Context, tenantID uuid.UUID, filter partnerapp.ListFilter) ([]partnerapp.CustomerResponse, int64, error)
	}
	suppliers interface {
		List(ctx context.Context, tenantID uuid.UUID, filter partnerapp.ListFilter) ([]partnerapp.SupplierResponse, int64, error)
	}
	payments interface {
		List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.PaymentListFilter) ([]invoicingapp.PaymentResponse, int64, error)
	}
}

// registerLiveCollections binds each collection to its largest list page, newest first
func registerLiveCollections(hub *realtime.Hub, src liveSources) {
	hub.Register(realtime.CollectionQuotes, func(ctx context.Context, tenantID uuid.UUID) (any, int64, error) {
		return src.quotes.List(ctx, tenantID, invoicingapp.QuoteListFilter{PageSize: shared.MaxPageSize, OrderBy: "created_at", OrderDir: "desc"})
	})
	hub.Register(realtime.CollectionInvoices, func(ctx context.Context, tenantID uuid.UUID) (any, int64, error) {
		return src.invoices.List(ctx, tenantID, invoicingapp.InvoiceListFilter{PageSize: shared.MaxPageSize, OrderBy: "created_at", OrderDir: "desc"})
	})
	hub.Register(realtime.CollectionCustomers, func(ctx context.Context, tenantID uuid.UUID) (any, int64, error) {
		return src.customers.List(ctx, tenantID, partnerapp.ListFilter{PageSize: shared.MaxPageSize, OrderBy: "name", OrderDir: "asc"})
	})
	hub.Register(realtime.CollectionSuppliers, func(ctx context.Context, tenantID uuid.UUID) (any, int64, error) {
		return src.suppliers.List(ctx, tenantID, partnerapp.ListFilter{PageSize: shared.MaxPageSize, OrderBy: "name", OrderDir: "asc"})
	})
	hub.Register(realtime.CollectionPayments, func(ctx context.Context, tenantID uuid.UUID) (any, int64, error) {
		return src.payments.List(ctx, tenantID, invoicingapp.PaymentListFilter{PageSize: shared.MaxPageSize})
	})
}
