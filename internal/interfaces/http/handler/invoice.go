package handler

import (
	"context"
	"errors"
	"mime"
	"net/http"

	invoicingapp "github.com/erp/invoicing/internal/application/invoicing"
	"github.com/erp/invoicing/internal/application/printing"
	"github.com/erp/invoicing/internal/domain/invoicing"
	infraprinting "github.com/erp/invoicing/internal/infrastructure/printing"
	"github.com/erp/invoicing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceService drives the invoice lifecycle and its payments
type InvoiceService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req invoicingapp.CreateInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicingapp.InvoiceResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.InvoiceListFilter) ([]invoicingapp.InvoiceListItemResponse, int64, error)
	Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req invoicingapp.UpdateInvoiceRequest) (*invoicingapp.InvoiceResponse, error)
	ChangeStatus(ctx context.Context, tenantID, invoiceID uuid.UUID, req invoicingapp.ChangeStatusRequest) (*invoicingapp.InvoiceResponse, error)
	RecordPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req invoicingapp.RecordPaymentRequest) (*invoicingapp.InvoiceResponse, error)
	ListPayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]invoicingapp.PaymentResponse, error)
	Compliance(ctx context.Context, tenantID, invoiceID uuid.UUID, encoding invoicing.PayloadEncoding) (*invoicingapp.ComplianceResponse, error)
}

// DocumentRenderer renders invoices as HTML or PDF
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, format printing.Format) (*printing.Document, error)
}

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService InvoiceService
	documents      DocumentRenderer
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService InvoiceService, documents DocumentRenderer) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		documents:      documents,
	}
}

// Create godoc
// @ID           createInvoice
// @Summary      Create a draft invoice
// @Description  Without due_date the invoice is due 30 days after creation
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body invoicingapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req invoicingapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getInvoice
// @Summary      Get an invoice with its items and payments
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        search query string false "Matches invoice number or client name"
// @Param        status query string false "Invoice status" Enums(draft, sent, paid, overdue, cancelled)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        quote_id query string false "Source quote ID" format(uuid)
// @Param        due_before query string false "Due strictly before this day" format(date)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]invoicingapp.InvoiceListItemResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter invoicingapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateInvoice
// @Summary      Edit an invoice
// @Description  Client, items and tax rate can change only while the invoice is a draft
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.UpdateInvoiceRequest true "Changes"
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req invoicingapp.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ChangeStatus godoc
// @ID           changeInvoiceStatus
// @Summary      Move an invoice to another status
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.ChangeStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/status [post]
func (h *InvoiceHandler) ChangeStatus(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req invoicingapp.ChangeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.ChangeStatus(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment against an invoice
// @Description  The status is left unchanged; mark the invoice paid with a status change.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body invoicingapp.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=invoicingapp.InvoiceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req invoicingapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// ListPayments returns the payments of one invoice, oldest first
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	payments, err := h.invoiceService.ListPayments(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Compliance godoc
// @ID           getInvoiceCompliance
// @Summary      Get the tax compliance payload of an invoice
// @Description  The encoded form is what the invoice QR code carries
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        encoding query string false "Payload encoding" Enums(tlv, json) default(tlv)
// @Success      200 {object} dto.Response{data=invoicingapp.ComplianceResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/compliance [get]
func (h *InvoiceHandler) Compliance(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	encoding := invoicing.PayloadEncoding(c.DefaultQuery("encoding", string(invoicing.PayloadEncodingTLV)))
	result, err := h.invoiceService.Compliance(c.Request.Context(), tenantID, id, encoding)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Document godoc
// @ID           getInvoiceDocument
// @Summary      Render an invoice
// @Description  HTML is shown inline. PDF is sent as a download unless inline=true.
// @Tags         invoices
// @Produce      html
// @Produce      application/pdf
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        format query string false "Output format" Enums(html, pdf) default(html)
// @Param        inline query bool false "Show the PDF in the browser"
// @Success      200 {file} file
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/document [get]
func (h *InvoiceHandler) Document(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	format, err := printing.ParseFormat(c.Query("format"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.documents.RenderInvoice(c.Request.Context(), tenantID, id, format)
	if err != nil {
		var renderErr *infraprinting.RenderError
		if errors.As(err, &renderErr) {
			h.logFailure(c, err)
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "PDF output is not available right now")
			return
		}
		h.HandleError(c, err)
		return
	}

	disposition := "inline"
	if doc.Format == printing.FormatPDF && c.Query("inline") != "true" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.FileName}))
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
