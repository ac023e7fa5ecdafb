package ws

import (
	"errors"
	"sync"

	"github.com/homelyhq/homely/internal/infrastructure/metrics"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrClientNotFound = errors.New("client not found")
)

// Registry is the relay's connection table: every live connection keyed by
// its id, plus an index of room membership. Membership is session-scoped;
// removing a connection tears down all of its memberships in one locked step.
type Registry struct {
	conns map[string]*Client            // connection id → client
	rooms map[string]map[string]*Client // room id → connection id → client
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]*Client),
	}
}

func (r *Registry) Add(cl *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[cl.ID]; exists {
		return
	}
	r.conns[cl.ID] = cl
	metrics.RelayConnections.Inc()
}

// Remove deletes the connection and every room membership it holds, then
// signals the client closed. Idempotent.
func (r *Registry) Remove(cl *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[cl.ID]; !exists {
		return
	}
	delete(r.conns, cl.ID)
	metrics.RelayConnections.Dec()

	for roomID := range cl.rooms {
		if members, ok := r.rooms[roomID]; ok {
			delete(members, cl.ID)
			if len(members) == 0 {
				delete(r.rooms, roomID)
				metrics.RelayRooms.Dec()
			}
		}
	}

	cl.Close()
}

// Join is idempotent: joining a room twice has no additional effect.
func (r *Registry) Join(cl *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[cl.ID]; !exists {
		return // already disconnected
	}

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomID] = members
		metrics.RelayRooms.Inc()
	}

	if _, joined := members[cl.ID]; joined {
		return
	}
	members[cl.ID] = cl
	cl.rooms[roomID] = struct{}{}
}

func (r *Registry) Leave(cl *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(cl.rooms, roomID)

	if members, ok := r.rooms[roomID]; ok {
		delete(members, cl.ID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
			metrics.RelayRooms.Dec()
		}
	}
}

func (r *Registry) InRoom(cl *Client, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, joined := members[cl.ID]
	return joined
}

// BroadcastToRoom delivers msg to every member of the room except the
// sender. A member whose send buffer is full has the frame dropped.
func (r *Registry) BroadcastToRoom(roomID, senderID string, msg *Envelope) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	for _, cl := range members {
		if cl.ID == senderID {
			continue
		}
		cl.trySend(msg)
	}
	return nil
}

// BroadcastToAll delivers msg to every connection except the sender,
// regardless of room membership.
func (r *Registry) BroadcastToAll(senderID string, msg *Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cl := range r.conns {
		if cl.ID == senderID {
			continue
		}
		cl.trySend(msg)
	}
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
