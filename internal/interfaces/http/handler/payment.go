package handler

import (
	"context"

	invoicingapp "github.com/erp/invoicing/internal/application/invoicing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentLister lists payments across a tenant's invoices
type PaymentLister interface {
	List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.PaymentListFilter) ([]invoicingapp.PaymentResponse, int64, error)
}

// DashboardReader aggregates tenant-wide figures
type DashboardReader interface {
	Summary(ctx context.Context, tenantID uuid.UUID) (*invoicingapp.DashboardSummary, error)
}

// PaymentHandler lists recorded payments
type PaymentHandler struct {
	BaseHandler
	payments PaymentLister
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentLister) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        invoice_id query string false "Invoice ID" format(uuid)
// @Param        method query string false "Payment method"
// @Param        from query string false "Paid on or after" format(date)
// @Param        to query string false "Paid on or before" format(date)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]invoicingapp.PaymentResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter invoicingapp.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	payments, total, err := h.payments.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// DashboardHandler serves the summary dashboard
type DashboardHandler struct {
	BaseHandler
	dashboard DashboardReader
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard DashboardReader) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary godoc
// @ID           getDashboardSummary
// @Summary      Tenant-wide totals and status counts
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} dto.Response{data=invoicingapp.DashboardSummary}
// @Security     BearerAuth
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	summary, err := h.dashboard.Summary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
