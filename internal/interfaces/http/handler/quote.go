package handler

import (
	"context"

	invoicingapp "github.com/erp/invoicing/internal/application/invoicing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuoteService drives the quote lifecycle
type QuoteService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req invoicingapp.CreateQuoteRequest) (*invoicingapp.QuoteResponse, error)
	GetByID(ctx context.Context, tenantID, quoteID uuid.UUID) (*invoicingapp.QuoteResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter invoicingapp.QuoteListFilter) ([]invoicingapp.QuoteListItemResponse, int64, error)
	Update(ctx context.Context, tenantID, quoteID uuid.UUID, req invoicingapp.UpdateQuoteRequest) (*invoicingapp.QuoteResponse, error)
	ChangeStatus(ctx context.Context, tenantID, quoteID uuid.UUID, req invoicingapp.ChangeStatusRequest) (*invoicingapp.QuoteResponse, error)
	Convert(ctx context.Context, tenantID, quoteID uuid.UUID) (*invoicingapp.ConversionResponse, error)
}

// QuoteHandler handles quote-related API endpoints
type QuoteHandler struct {
	BaseHandler
	quoteService QuoteService
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// Create godoc
// @ID           createQuote
// @Summary      Create a draft quote
// @Description  Totals are computed server-side. Unreadable quantities or prices count as zero.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        request body invoicingapp.CreateQuoteRequest true "Quote"
// @Success      201 {object} dto.Response{data=invoicingapp.QuoteResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req invoicingapp.CreateQuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// GetByID godoc
// @ID           getQuote
// @Summary      Get a quote with its line items
// @Tags         quotes
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      200 {object} dto.Response{data=invoicingapp.QuoteResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes/{id} [get]
func (h *QuoteHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	quote, err := h.quoteService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// List godoc
// @ID           listQuotes
// @Summary      List quotes
// @Tags         quotes
// @Produce      json
// @Param        search query string false "Matches quote number or client name"
// @Param        status query string false "Quote status" Enums(draft, sent, accepted, rejected, expired, converted)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(created_at, updated_at, quote_number, total)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]invoicingapp.QuoteListItemResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter invoicingapp.QuoteListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	quotes, total, err := h.quoteService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, quotes, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateQuote
// @Summary      Edit a draft quote
// @Description  Omitted fields are left unchanged. Only draft quotes can be edited.
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Param        request body invoicingapp.UpdateQuoteRequest true "Changes"
// @Success      200 {object} dto.Response{data=invoicingapp.QuoteResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes/{id} [put]
func (h *QuoteHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req invoicingapp.UpdateQuoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// ChangeStatus godoc
// @ID           changeQuoteStatus
// @Summary      Move a quote to another status
// @Description  Allowed targets are listed in next_statuses of the quote
// @Tags         quotes
// @Accept       json
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Param        request body invoicingapp.ChangeStatusRequest true "Target status"
// @Success      200 {object} dto.Response{data=invoicingapp.QuoteResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes/{id}/status [post]
func (h *QuoteHandler) ChangeStatus(c *gin.Context) {
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

	quote, err := h.quoteService.ChangeStatus(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Convert godoc
// @ID           convertQuote
// @Summary      Turn an accepted quote into an invoice
// @Description  The quote becomes converted and the new draft invoice copies its client and items.
// @Description  Both changes are stored together or not at all.
// @Tags         quotes
// @Produce      json
// @Param        id path string true "Quote ID" format(uuid)
// @Success      201 {object} dto.Response{data=invoicingapp.ConversionResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quotes/{id}/convert [post]
func (h *QuoteHandler) Convert(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	result, err := h.quoteService.Convert(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
