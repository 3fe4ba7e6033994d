package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/ticket-insights/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Outbound queue length per connection.
	sendBuffer = 64
)

// Client message types
const (
	MessageSubscribe   = "SUBSCRIBE_TO_DATASET"
	MessageUnsubscribe = "UNSUBSCRIBE_FROM_DATASET"
	MessagePing        = "PING"
	EventPong          = domain.EventType("PONG")
)

// Timing controls keepalive. PingInterval must be shorter than PongWait.
type Timing struct {
	PingInterval time.Duration
	PongWait     time.Duration
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound events.
	Send chan domain.Event

	// ClientID identifies the API client, from its token or generated for anonymous use.
	ClientID string

	subscriptions map[string]bool
	timing        Timing
	closed        bool
	mu            sync.RWMutex // guards subscriptions and closed
	logger        *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, clientID string, timing Timing, logger *slog.Logger) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan domain.Event, sendBuffer),
		ClientID:      clientID,
		subscriptions: make(map[string]bool),
		timing:        timing,
		logger:        logger.With("client_id", clientID),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// trySend queues event without blocking. It reports false when the buffer is full
// or the client has been closed.
func (c *Client) trySend(event domain.Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- event:
		return true
	default:
		return false
	}
}

// AddSubscription records a dataset subscription
func (c *Client) AddSubscription(datasetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[datasetID] = true
}

// RemoveSubscription forgets a dataset subscription
func (c *Client) RemoveSubscription(datasetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, datasetID)
}

// GetSubscriptions returns a copy of all subscriptions
func (c *Client) GetSubscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subs := make([]string, 0, len(c.subscriptions))
	for datasetID := range c.subscriptions {
		subs = append(subs, datasetID)
	}
	return subs
}

// Subscribe joins the room of a dataset.
func (c *Client) Subscribe(datasetID string) {
	c.Hub.subscribe(c, datasetID)
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timing.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.timing.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload is the payload for subscribe/unsubscribe messages
type SubscribePayload struct {
	DatasetID string `json:"datasetId"`
}

// handleIncomingMessage processes messages received from the client
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case MessageSubscribe, MessageUnsubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.DatasetID == "" {
			c.logger.Warn("invalid subscription payload", "type", msg.Type)
			return
		}
		if msg.Type == MessageSubscribe {
			c.Hub.subscribe(c, p.DatasetID)
		} else {
			c.Hub.unsubscribe(c, p.DatasetID)
		}

	case MessagePing:
		c.trySend(domain.Event{Type: EventPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}
