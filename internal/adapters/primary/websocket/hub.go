package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// Hub maintains the set of active clients and fans dispatch events out to
// the queue rooms they watch. Display boards and customer apps subscribe to
// a queue and receive every event the core emits for it.
type Hub struct {
	// clients holds every open connection.
	clients map[*Client]bool

	// rooms maps queue IDs to subscribed clients.
	rooms map[uuid.UUID]map[*Client]bool

	// broadcast carries events from the core to the hub loop.
	broadcast chan domain.Event

	// Register requests from clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// mu protects the clients and rooms maps.
	mu sync.RWMutex

	logger *slog.Logger
}

var _ ports.EventEmitter = (*Hub)(nil)

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Emit queues an event for broadcast. Emission is fire-and-forget: when the
// hub is saturated the event is dropped rather than blocking a dispatch
// operation.
func (h *Hub) Emit(ctx context.Context, event domain.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"queue_id", event.QueueID,
		)
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("client registered",
		"connection_id", client.ConnectionID,
		"total_connections", len(h.clients),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for _, queueID := range client.GetSubscriptions() {
		if room, ok := h.rooms[queueID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, queueID)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "connection_id", client.ConnectionID)
}

// broadcastEvent sends an event to all clients watching the event's queue.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	room, ok := h.rooms[event.QueueID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy the client list to avoid holding the lock while sending.
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"queue_id", event.QueueID,
		"client_count", len(clients),
	)

	for _, client := range clients {
		if !client.TrySend(event) {
			// Client's send buffer is full, unregister them.
			h.logger.Warn("client send buffer full, unregistering",
				"connection_id", client.ConnectionID,
			)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) subscribeClientToQueue(client *Client, queueID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[queueID] == nil {
		h.rooms[queueID] = make(map[*Client]bool)
	}
	h.rooms[queueID][client] = true
	client.AddSubscription(queueID)

	h.logger.Debug("client subscribed to queue",
		"connection_id", client.ConnectionID,
		"queue_id", queueID,
	)
}

func (h *Hub) unsubscribeClientFromQueue(client *Client, queueID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[queueID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, queueID)
		}
	}
	client.RemoveSubscription(queueID)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
