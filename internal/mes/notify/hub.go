package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Refresh event types pushed to shop-floor clients. A client reacting to
// operations_refresh re-pulls the operation list (and the inspection history
// it has open); config_refresh re-pulls the automation thresholds.
const (
	EventOperationsRefresh = "operations_refresh"
	EventConfigRefresh     = "config_refresh"
)

// Event is one refresh notification.
type Event struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id,omitempty"`
}

// Client is one connected SSE consumer.
type Client struct {
	ID     string
	UserID string
	Events chan Event
}

// Hub fans refresh events out to connected SSE clients.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.log.Debug("sse client registered",
		zap.String("client_id", c.ID),
		zap.Int("total", len(h.clients)))
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		h.log.Debug("sse client unregistered",
			zap.String("client_id", clientID),
			zap.Int("total", len(h.clients)))
	}
}

// Broadcast delivers an event to every connected client. Slow clients are
// skipped rather than blocking the mutation path.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.Events <- ev:
		default:
			h.log.Warn("sse client buffer full, dropping event",
				zap.String("client_id", c.ID),
				zap.String("event", ev.Type))
		}
	}
}
