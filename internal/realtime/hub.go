// Package realtime implements the WebSocket hub: explicit rooms keyed by
// user or group identity, chat relay, presence and reminder delivery.
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"studyhub/internal/metrics"
	"studyhub/internal/models"
)

// Room name helpers. Rooms are addressable broadcast channels; membership
// lives only in the hub's maps and is rebuilt on reconnect.

// UserRoom returns the room name for a user's personal channel
func UserRoom(username string) string {
	return "user-" + username
}

// GroupRoom returns the room name for a study group's channel
func GroupRoom(groupID string) string {
	return "group-" + groupID
}

// Store is the slice of the persistence layer the hub needs. Chat
// messages are persisted before any relay.
type Store interface {
	SaveDirectMessage(sender, receiver, content, msgType string) (*models.DirectMessage, error)
	SaveGroupMessage(groupID, sender, content string) (*models.GroupMessage, error)
	IsApprovedMember(username, groupID string) (bool, error)
	ApprovedMemberUsernames(groupID string) ([]string, error)
	StudyingFriends(username string) ([]string, error)
	CreateNotification(recipient, notifType, title, message, relatedID, relatedType string) (*models.Notification, error)
	HasUnreadNotification(username, groupID string) (bool, error)
}

// Hub owns room membership and relays events between connections
type Hub struct {
	store    Store
	presence *Presence

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	joined  map[*Client]map[string]struct{}
	online  map[string]int // open connections per username
}

// NewHub creates a hub. presence may be nil when Redis is not configured.
func NewHub(store Store, presence *Presence) *Hub {
	return &Hub{
		store:    store,
		presence: presence,
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
		joined:   make(map[*Client]map[string]struct{}),
		online:   make(map[string]int),
	}
}

// Register adds a freshly authenticated connection
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.joined[c] = make(map[string]struct{})
	h.online[c.username]++
	first := h.online[c.username] == 1
	h.mu.Unlock()

	metrics.RealtimeConnections.Inc()
	if first {
		h.presence.MarkOnline(c.username)
	}
}

// Unregister removes a connection from every room and tears it down
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range h.joined[c] {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.joined, c)
	h.online[c.username]--
	last := h.online[c.username] <= 0
	if last {
		delete(h.online, c.username)
	}
	h.mu.Unlock()

	c.close()
	metrics.RealtimeConnections.Dec()
	if last {
		h.presence.MarkOffline(c.username)
	}
}

// Join subscribes the connection to room. Authorization happens in the
// event handlers before this is called.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	h.joined[c][room] = struct{}{}
}

// EmitToRoom delivers an event to every connection in room
func (h *Hub) EmitToRoom(room, event string, payload interface{}) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Printf("Error: failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.enqueue(data)
	}
	metrics.RealtimeEvents.WithLabelValues(event, "out").Inc()
}

// EmitToUser delivers an event to every connection in the user's room
func (h *Hub) EmitToUser(username, event string, payload interface{}) {
	h.EmitToRoom(UserRoom(username), event, payload)
}

// EmitToConn delivers an event to a single connection
func (h *Hub) EmitToConn(c *Client, event string, payload interface{}) {
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		log.Printf("Error: failed to marshal %s event: %v", event, err)
		return
	}
	c.enqueue(data)
	metrics.RealtimeEvents.WithLabelValues(event, "out").Inc()
}

// userInRoom reports whether any of username's connections joined room
func (h *Hub) userInRoom(room, username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c.username == username {
			return true
		}
	}
	return false
}

// Close tears down every connection, e.g. on shutdown
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
