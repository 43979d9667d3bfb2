package handler

import (
	"context"

	"github.com/erp/invoicing/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantService reads and edits the seller profile
type TenantService interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*identity.TenantResponse, error)
	UpdateProfile(ctx context.Context, tenantID uuid.UUID, input identity.UpdateTenantInput) (*identity.TenantResponse, error)
}

// TenantHandler handles the current tenant's profile
type TenantHandler struct {
	BaseHandler
	tenantService TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Get godoc
// @ID           getTenant
// @Summary      Get the seller profile
// @Tags         tenant
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.TenantResponse}
// @Security     BearerAuth
// @Router       /tenant [get]
func (h *TenantHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Update godoc
// @ID           updateTenant
// @Summary      Replace the seller profile
// @Description  Name, address and tax ID are printed on every invoice
// @Tags         tenant
// @Accept       json
// @Produce      json
// @Param        request body UpdateTenantRequest true "Seller profile"
// @Success      200 {object} dto.Response{data=identity.TenantResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenant [put]
func (h *TenantHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req UpdateTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.UpdateProfile(c.Request.Context(), tenantID, identity.UpdateTenantInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		TaxID:   req.TaxID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}
