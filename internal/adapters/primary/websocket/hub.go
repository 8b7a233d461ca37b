package websocket

import (
	"log/slog"
	"sync"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/core/ports"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

// Hub maintains the set of connected observers and fans incident events out
// to all of them. It is constructed once at startup and passed by handle to
// the HTTP layer; there is no ambient singleton.
type Hub struct {
	// mu protects clients. Broadcast iterates a point-in-time snapshot so
	// concurrent register/unregister cannot invalidate the iteration.
	mu      sync.RWMutex
	clients map[*Client]bool

	metrics *observability.Metrics
	logger  *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates an empty observer hub.
func NewHub(metrics *observability.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		metrics: metrics,
		logger:  logger.With("component", "hub"),
	}
}

// Register adds an observer. It is visible to all subsequent broadcasts.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConnectedObservers.Set(float64(total))
	h.logger.Info("observer connected", "remote_addr", client.RemoteAddr(), "total", total)
}

// Unregister removes an observer and closes its send channel. Idempotent:
// removing an absent observer is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	client.closeSend()
	h.metrics.ConnectedObservers.Set(float64(total))
	h.logger.Info("observer disconnected", "remote_addr", client.RemoteAddr(), "total", total)
}

// Broadcast delivers event to every currently registered observer and
// returns the number of observers the delivery was attempted against.
// Failures are isolated per observer: a full send buffer or a closed
// connection is logged and skipped, never removing the observer and never
// aborting delivery to the rest. Only an explicit disconnect removes an
// observer.
func (h *Hub) Broadcast(event domain.PushEvent) int {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		snapshot = append(snapshot, client)
	}
	h.mu.RUnlock()

	h.metrics.BroadcastsTotal.Inc()
	for _, client := range snapshot {
		if err := client.enqueue(event); err != nil {
			h.metrics.DeliveryFailures.Inc()
			h.logger.Warn("failed to deliver event to observer",
				"event_type", event.Type,
				"remote_addr", client.RemoteAddr(),
				"error", err,
			)
		}
	}

	h.logger.Debug("broadcast attempted", "event_type", event.Type, "observers", len(snapshot))
	return len(snapshot)
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
