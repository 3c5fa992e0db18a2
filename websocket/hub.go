package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of connected members and fans activity entries out
// to everyone watching a data room
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Data room subscriptions (roomID -> clients)
	rooms map[uint]map[*Client]bool

	// Mutex for the clients and rooms maps
	roomsMux sync.RWMutex

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.roomsMux.Lock()
			h.clients[client] = true
			h.roomsMux.Unlock()
		case client := <-h.unregister:
			h.roomsMux.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				// Remove client from all room subscriptions
				for roomID, clients := range h.rooms {
					if _, ok := clients[client]; ok {
						delete(h.rooms[roomID], client)
						// Clean up empty rooms
						if len(h.rooms[roomID]) == 0 {
							delete(h.rooms, roomID)
						}
					}
				}
			}
			h.roomsMux.Unlock()
		}
	}
}

// subscribe adds a client to a data room feed
func (h *Hub) subscribe(client *Client, roomID uint) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// unsubscribe removes a client from a data room feed
func (h *Hub) unsubscribe(client *Client, roomID uint) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	if _, ok := h.rooms[roomID]; ok {
		delete(h.rooms[roomID], client)
		// Clean up empty rooms
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// broadcastToRoom sends a message to all clients watching a room
func (h *Hub) broadcastToRoom(roomID uint, message []byte) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	if clients, ok := h.rooms[roomID]; ok {
		for client := range clients {
			select {
			case client.send <- message:
			default:
				close(client.send)
				delete(clients, client)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastActivity pushes an audit-trail entry to every member watching the
// data room. Best-effort, like the audit write that produced the entry.
func BroadcastActivity(roomID uint, payload interface{}) {
	if hub == nil {
		return
	}

	msg := Message{
		Type:    "activity",
		Payload: payload,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling activity message: %v", err)
		return
	}

	hub.broadcastToRoom(roomID, msgBytes)
}

// Global hub instance
var hub *Hub

// InitHub initializes the global hub
func InitHub() {
	hub = NewHub()
	go hub.Run()
}
