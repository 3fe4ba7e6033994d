package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	"github.com/lorrc/ticket-insights/internal/core/ports"
)

// Hub maintains the set of active Clients and broadcasts dataset events to them.
type Hub struct {
	// clients maps API client IDs to their active connections.
	// A single API client can hold several connections (tabs, dashboards).
	clients map[string]map[*Client]bool

	// rooms maps dataset IDs to subscribed clients
	rooms map[string]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	register   chan *Client
	unregister chan *Client

	// done is closed once Run has returned.
	done chan struct{}

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for delivery. It never blocks: when the queue is full
// the event is dropped, since events are notifications and not state.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"dataset_id", event.DatasetID,
		)
	}
	return nil
}

// Run starts the hub's event loop until ctx is done. It must run in its own goroutine
// and at most once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register hands client to the event loop. It reports false once the hub has
// stopped, in which case the caller owns the connection.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from the hub. It returns immediately once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.ClientID] == nil {
		h.clients[client.ClientID] = make(map[*Client]bool)
	}
	h.clients[client.ClientID][client] = true

	h.logger.Info("client registered",
		"client_id", client.ClientID,
		"total_connections", len(h.clients[client.ClientID]),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.ClientID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.ClientID)
	}

	for _, datasetID := range client.GetSubscriptions() {
		h.leaveRoom(client, datasetID)
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "client_id", client.ClientID)
}

// closeAll disconnects every client on shutdown
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for client := range conns {
			client.CloseSend()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
}

// broadcastEvent sends a dataset event to the dataset's room, or an event without a
// dataset to every connected client.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	var recipients []*Client
	if event.DatasetID == "" {
		for _, conns := range h.clients {
			for client := range conns {
				recipients = append(recipients, client)
			}
		}
	} else {
		for client := range h.rooms[event.DatasetID] {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	if len(recipients) == 0 {
		return
	}

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"dataset_id", event.DatasetID,
		"client_count", len(recipients),
	)

	for _, client := range recipients {
		if !client.trySend(event) {
			// Client's send buffer is full; drop it rather than stall the loop.
			h.logger.Warn("client send buffer full, unregistering",
				"client_id", client.ClientID,
			)
			h.unregisterClient(client)
		}
	}
}

// subscribe adds a client to a dataset's room
func (h *Hub) subscribe(client *Client, datasetID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[datasetID] == nil {
		h.rooms[datasetID] = make(map[*Client]bool)
	}
	h.rooms[datasetID][client] = true
	client.AddSubscription(datasetID)

	h.logger.Debug("client subscribed to dataset",
		"client_id", client.ClientID,
		"dataset_id", datasetID,
	)
}

// unsubscribe removes a client from a dataset's room
func (h *Hub) unsubscribe(client *Client, datasetID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoom(client, datasetID)
	client.RemoveSubscription(datasetID)
}

// leaveRoom requires h.mu to be held.
func (h *Hub) leaveRoom(client *Client, datasetID string) {
	if room, ok := h.rooms[datasetID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, datasetID)
		}
	}
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.clients {
		count += len(conns)
	}
	return count
}

// GetClientsInRoom returns the number of clients subscribed to a dataset
func (h *Hub) GetClientsInRoom(datasetID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[datasetID])
}
