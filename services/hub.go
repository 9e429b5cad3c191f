package services

import (
	"log"
	"sync"

	"chemtrack-backend/models"

	"github.com/gofiber/websocket/v2"
)

// ChangeEvent is pushed to connected clients after a ledger change commits.
// Clients refetch levels and history when they receive one.
type ChangeEvent struct {
	Type    string                 `json:"type"`
	Changes []models.ChangeHistory `json:"changes"`
}

// Client is one connected websocket subscriber.
type Client struct {
	conn *websocket.Conn
	send chan ChangeEvent
}

// Hub fans ledger-change events out to all connected clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan ChangeEvent
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ChangeEvent, 16),
	}
}

// Run processes registrations and broadcasts. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Change feed client connected. Total clients: %d", len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()

		case event := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					// Slow consumer; drop the event rather than block the hub.
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastChanges notifies all clients about committed history rows.
func (h *Hub) BroadcastChanges(rows []models.ChangeHistory) {
	if len(rows) == 0 {
		return
	}
	h.broadcast <- ChangeEvent{Type: "inventory_change", Changes: rows}
}

// HandleWebSocket serves one client connection until it closes.
func (h *Hub) HandleWebSocket(conn *websocket.Conn) {
	client := &Client{conn: conn, send: make(chan ChangeEvent, 8)}
	h.register <- client

	go func() {
		for event := range client.send {
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister <- client
	conn.Close()
}
