package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Size of the per-client outbound event buffer.
	sendBufferSize = 64
)

// ClientMessage is an inbound control message from a connected client.
type ClientMessage struct {
	Type    string    `json:"type"`
	QueueID uuid.UUID `json:"queue_id"`
}

const (
	MessageSubscribe   = "SUBSCRIBE_TO_QUEUE"
	MessageUnsubscribe = "UNSUBSCRIBE_FROM_QUEUE"
)

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	// ConnectionID uniquely identifies this connection for logging.
	ConnectionID uuid.UUID

	hub  *Hub
	conn *websocket.Conn

	// Send is the buffered channel of outbound events.
	Send chan domain.Event

	mu            sync.Mutex
	subscriptions map[uuid.UUID]bool
	sendClosed    bool

	logger *slog.Logger
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		ConnectionID:  id,
		hub:           hub,
		conn:          conn,
		Send:          make(chan domain.Event, sendBufferSize),
		subscriptions: make(map[uuid.UUID]bool),
		logger:        logger.With("connection_id", id),
	}
}

// AddSubscription records a queue subscription on the client.
func (c *Client) AddSubscription(queueID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[queueID] = true
}

// RemoveSubscription removes a queue subscription from the client.
func (c *Client) RemoveSubscription(queueID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, queueID)
}

// GetSubscriptions returns the queues this client is watching.
func (c *Client) GetSubscriptions() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	return ids
}

// CloseSend closes the outbound channel exactly once, so WritePump observes
// a closed channel and exits.
func (c *Client) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}

// TrySend enqueues an event without blocking. It reports false when the
// client's buffer is full or the channel is already closed.
func (c *Client) TrySend(event domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// ReadPump pumps control messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. This ensures
// at most one reader on a connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected websocket close", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Debug("ignoring malformed client message", "error", err)
			continue
		}

		switch msg.Type {
		case MessageSubscribe:
			if msg.QueueID != uuid.Nil {
				c.hub.subscribeClientToQueue(c, msg.QueueID)
			}
		case MessageUnsubscribe:
			if msg.QueueID != uuid.Nil {
				c.hub.unsubscribeClientFromQueue(c, msg.QueueID)
			}
		default:
			c.logger.Debug("ignoring unknown message type", "type", msg.Type)
		}
	}
}

// WritePump pumps events from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. This ensures
// at most one writer on a connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
