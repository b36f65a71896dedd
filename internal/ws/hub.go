package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one websocket connection with its authenticated identity.
// Writes are serialized per client because broadcasts from concurrent
// handlers may target the same connection.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	UserID string
	Role   string
}

func NewClient(conn *websocket.Conn, userID, role string) *Client {
	return &Client{conn: conn, UserID: userID, Role: role}
}

func (c *Client) Send(message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Hub keeps the room membership table: which clients are subscribed to
// which session, and the reverse mapping used on disconnect. Only
// join/leave/disconnect events mutate it.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	joined map[*Client]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]bool),
		joined: make(map[*Client]map[string]bool),
	}
}

func (h *Hub) Join(sessionID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*Client]bool)
	}
	h.rooms[sessionID][c] = true

	if h.joined[c] == nil {
		h.joined[c] = make(map[string]bool)
	}
	h.joined[c][sessionID] = true

	log.Printf("ws: client %s joined session %s (members: %d)", c.UserID, sessionID, len(h.rooms[sessionID]))
}

// Leave removes the client from one room, reporting whether it was a
// member.
func (h *Hub) Leave(sessionID string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.leaveLocked(sessionID, c)
}

func (h *Hub) leaveLocked(sessionID string, c *Client) bool {
	conns, ok := h.rooms[sessionID]
	if !ok || !conns[c] {
		return false
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.rooms, sessionID)
	}
	if joined := h.joined[c]; joined != nil {
		delete(joined, sessionID)
		if len(joined) == 0 {
			delete(h.joined, c)
		}
	}
	return true
}

// Disconnect unsubscribes the client from every room it had joined and
// returns the affected session ids so callers can notify the rooms.
func (h *Hub) Disconnect(c *Client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var sessions []string
	for sessionID := range h.joined[c] {
		sessions = append(sessions, sessionID)
	}
	for _, sessionID := range sessions {
		h.leaveLocked(sessionID, c)
	}
	return sessions
}

func (h *Hub) InRoom(sessionID string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[sessionID][c]
}

func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// Broadcast sends the message to every room member except the given
// client (pass nil to reach everyone). Dead connections are dropped
// from the hub.
func (h *Hub) Broadcast(sessionID string, message WSMessage, except *Client) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[sessionID]))
	for c := range h.rooms[sessionID] {
		if c != except {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		if err := c.Send(message); err != nil {
			log.Printf("ws: write error: %v", err)
			c.Close()
			h.Disconnect(c)
		}
	}
}
