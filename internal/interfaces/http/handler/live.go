package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/infrastructure/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LiveHandler streams collection snapshots over Server-Sent Events.
// Each event carries the full current list, so a client that missed
// intermediate states only ever sees the latest one.
type LiveHandler struct {
	BaseHandler
	hub       *realtime.Hub
	heartbeat time.Duration
}

// NewLiveHandler creates a LiveHandler; heartbeat <= 0 disables keep-alive comments
func NewLiveHandler(hub *realtime.Hub, heartbeat time.Duration) *LiveHandler {
	return &LiveHandler{hub: hub, heartbeat: heartbeat}
}

// Stream godoc
// @ID           streamLiveCollection
// @Summary      Subscribe to a live collection
// @Description  Sends a "snapshot" event with the current items first and again after every change.
// @Description  Browsers may pass the access token as ?access_token= since EventSource cannot set headers.
// @Tags         live
// @Produce      text/event-stream
// @Param        collection path string true "Collection" Enums(quotes, invoices, customers, suppliers, payments)
// @Success      200 {string} string "event stream"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /live/{collection} [get]
func (h *LiveHandler) Stream(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	collection := realtime.Collection(c.Param("collection"))
	if !h.hub.Supports(collection) {
		h.HandleError(c, realtime.ErrUnknownCollection)
		return
	}

	ctx := c.Request.Context()
	sub, err := h.hub.Subscribe(ctx, tenantID, collection)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	var heartbeat <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	log := logger.For(ctx).With(zap.String("collection", string(collection)))
	log.Debug("Live stream started")

	for {
		select {
		case <-ctx.Done():
			log.Debug("Live stream closed by client")
			return
		case <-heartbeat:
			if _, err := io.WriteString(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case snap, open := <-sub.C:
			if !open {
				// Hub stopped; let the client reconnect elsewhere
				_ = writeSSE(c.Writer, "end", "", []byte(`{}`))
				c.Writer.Flush()
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				log.Error("Failed to encode live snapshot", zap.Error(err))
				return
			}
			if err := writeSSE(c.Writer, "snapshot", strconv.FormatUint(snap.Sequence, 10), data); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeSSE(w io.Writer, event, id string, data []byte) error {
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
