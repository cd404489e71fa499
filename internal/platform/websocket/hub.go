// Package websocket broadcasts committed board events to connected browser
// clients over gorilla/websocket. The Hub is an events.EventHandler, so it is
// registered on the application's event emitter like any other handler.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/phrazzld/kanban-api/internal/events"
)

// sendBuffer is the number of messages queued per client before it is
// considered too slow and dropped.
const sendBuffer = 64

// Hub maintains the set of active clients and broadcasts board events to them.
// Run must be started before clients connect.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	mu    sync.RWMutex
	count int
}

// NewHub creates a new hub instance.
// If logger is nil, a default logger will be used.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket_hub")),
	}
}

// Ensure Hub implements events.EventHandler interface
var _ events.EventHandler = (*Hub)(nil)

// Run is the hub's main loop. It returns when ctx is cancelled, after
// closing every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("websocket hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.logger.Debug("client connected", slog.String("user_id", client.userID.String()))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("client disconnected", slog.String("user_id", client.userID.String()))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("client send buffer full, dropping client",
						slog.String("user_id", client.userID.String()))
					h.drop(client)
				}
			}
		}
	}
}

// drop removes a client and closes its send channel. Only Run calls it.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// HandleEvent implements events.EventHandler by queueing the event for
// every connected client. It blocks only while the broadcast queue is full.
func (h *Hub) HandleEvent(ctx context.Context, event *events.BoardEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register adds a client to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// newClient builds an unregistered client for a user.
func (h *Hub) newClient(conn *gws.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
	}
}
