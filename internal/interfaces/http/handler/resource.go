package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ResourceService is the tenant-scoped CRUD surface behind a ResourceHandler.
// C and U are the create and update payloads, R the response, F the list filter.
type ResourceService[C, U, R, F any] interface {
	Create(ctx context.Context, tenantID uuid.UUID, req C) (*R, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*R, error)
	List(ctx context.Context, tenantID uuid.UUID, filter F) ([]R, int64, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, req U) (*R, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// pager exposes the requested page for the response meta
type pager interface {
	Paging() (page, pageSize int)
}

// ResourceHandler serves GET/POST on a collection and GET/PUT/DELETE on /:id
type ResourceHandler[C, U, R any, F pager] struct {
	BaseHandler
	svc ResourceService[C, U, R, F]
}

func (h *ResourceHandler[C, U, R, F]) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req C
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.svc.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, created)
}

func (h *ResourceHandler[C, U, R, F]) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	found, err := h.svc.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, found)
}

func (h *ResourceHandler[C, U, R, F]) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter F
	if !h.bindQuery(c, &filter) {
		return
	}

	items, total, err := h.svc.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := filter.Paging()
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// Update replaces the resource; an omitted optional field is cleared
func (h *ResourceHandler[C, U, R, F]) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req U
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, updated)
}

// Delete removes the resource. Quotes and invoices keep the values they copied from it.
func (h *ResourceHandler[C, U, R, F]) Delete(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
