package handler

import (
	"io"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/notify"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventsHandler streams refresh events to shop-floor clients over SSE.
type EventsHandler struct {
	hub *notify.Hub
}

func NewEventsHandler(hub *notify.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream GET /events
func (h *EventsHandler) Stream(c *gin.Context) {
	client := &notify.Client{
		ID:     uuid.New().String(),
		UserID: GetUserID(c),
		Events: make(chan notify.Event, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
