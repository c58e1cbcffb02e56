// Package websocket feeds sync status updates to connected browser
// clients so the UI's online/pending indicator updates without polling.
package websocket

import (
	"encoding/json"
	"log"
	"sync"

	syncer "github.com/hostelmate/hostelmatego/internal/sync"
)

// Hub maintains the set of connected clients and fans status frames
// out to all of them. It retains the last broadcast frame so a client
// connecting between status changes still gets the current state.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu        sync.RWMutex
	lastFrame []byte
}

// NewHub creates a hub. Run must be started in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("📱 Status client connected (%d active)", len(h.clients))

			h.mu.RLock()
			frame := h.lastFrame
			h.mu.RUnlock()
			if frame != nil {
				select {
				case client.send <- frame:
				default:
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("📴 Status client disconnected (%d active)", len(h.clients))
			}

		case frame := <-h.broadcast:
			h.mu.Lock()
			h.lastFrame = frame
			h.mu.Unlock()

			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// statusFrame is the wire envelope for a status broadcast.
type statusFrame struct {
	Type string                `json:"type"`
	Data syncer.StatusSnapshot `json:"data"`
}

// BroadcastStatus sends a status snapshot to every connected client.
// Satisfies the sync package's Broadcaster interface.
func (h *Hub) BroadcastStatus(snap syncer.StatusSnapshot) {
	frame, err := json.Marshal(statusFrame{Type: "sync_status", Data: snap})
	if err != nil {
		log.Printf("Error marshaling status frame: %v", err)
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		// Hub loop stalled; drop the frame, the next one carries
		// fresher state anyway.
	}
}
