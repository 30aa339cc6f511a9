package live

import (
	"log"
	"sync"
	"time"

	"emporia/models"

	"github.com/gorilla/websocket"
)

// OrderEvent is pushed to connected admin dashboards when an order is
// created or changes status.
type OrderEvent struct {
	Type      string       `json:"type"` // "order_created" or "order_updated"
	Order     models.Order `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

// Hub fans order events out to admin websocket subscribers. Slow or dead
// connections are dropped rather than blocking the broadcast.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan OrderEvent
	done      chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan OrderEvent, 16),
		done:      make(chan struct{}),
	}
}

// Run delivers broadcasts until Stop is called. Start it in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case event := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("live: dropping subscriber: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a subscriber connection owned by the hub from now on.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

// Publish queues an event without blocking the caller; when the buffer is
// full the event is dropped, the dashboard refreshes on next poll anyway.
func (h *Hub) Publish(event OrderEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Println("live: broadcast buffer full, event dropped")
	}
}
