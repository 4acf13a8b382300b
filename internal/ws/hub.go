// Package ws holds the realtime connection registry for group chat. The hub
// is an injectable component constructed in main, not an ambient singleton,
// so it can later be swapped for a distributed fan-out backend.
package ws

import (
	"sync"

	"github.com/KobaKhit/rebelzapp/internal/dto"
)

// Hub tracks live connections per group (forward map) and the group each
// connection belongs to (reverse map). Invariant: every client in the reverse
// map sits in exactly one room's set, and vice versa. Mutations of a single
// group's set serialize on that room's lock; different groups do not contend.
//
// Lock order: Hub.mu may be held while taking a room lock, never the other
// way around.
type Hub struct {
	mu      sync.RWMutex
	groups  map[uint]*room
	clients map[*Client]uint
}

type room struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups:  make(map[uint]*room),
		clients: make(map[*Client]uint),
	}
}

// Join registers the client and announces it to the rest of the group. The
// joining client does not receive its own user_joined event.
func (h *Hub) Join(groupID uint, c *Client) {
	h.mu.Lock()
	r, ok := h.groups[groupID]
	if !ok {
		r = &room{clients: make(map[*Client]struct{})}
		h.groups[groupID] = r
	}
	h.clients[c] = groupID
	h.mu.Unlock()

	r.mu.Lock()
	r.clients[c] = struct{}{}
	failed := r.broadcastLocked(PresenceEvent{
		Type:    EventUserJoined,
		GroupID: groupID,
		User:    dto.ToUserSummary(c.User),
	}, c)
	r.mu.Unlock()

	h.drop(failed)
}

// Leave removes the client from both maps, announces the departure to the
// remaining members and deletes the group entry once it is empty.
func (h *Hub) Leave(groupID uint, c *Client) {
	h.mu.Lock()
	r, ok := h.groups[groupID]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.clients, c)
	empty := len(r.clients) == 0
	var failed []*Client
	if !empty {
		failed = r.broadcastLocked(PresenceEvent{
			Type:    EventUserLeft,
			GroupID: groupID,
			User:    dto.ToUserSummary(c.User),
		}, nil)
	}
	r.mu.Unlock()

	if empty {
		h.mu.Lock()
		if current, ok := h.groups[groupID]; ok && current == r {
			current.mu.Lock()
			if len(current.clients) == 0 {
				delete(h.groups, groupID)
			}
			current.mu.Unlock()
		}
		h.mu.Unlock()
	}

	h.drop(failed)
}

// Broadcast sends an event to every connection in the group except exclude.
// Send failures never abort the loop; the failed connection is pruned from
// both maps instead.
func (h *Hub) Broadcast(groupID uint, event any, exclude *Client) {
	h.mu.RLock()
	r, ok := h.groups[groupID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	r.mu.Lock()
	failed := r.broadcastLocked(event, exclude)
	r.mu.Unlock()

	h.drop(failed)
}

// Connections reports the number of live connections for a group.
func (h *Hub) Connections(groupID uint) int {
	h.mu.RLock()
	r, ok := h.groups[groupID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Registered reports whether the client is still known to the hub.
func (h *Hub) Registered(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[c]
	return ok
}

// broadcastLocked requires r.mu. Failed clients are removed from the room set
// and returned for reverse-map cleanup.
func (r *room) broadcastLocked(event any, exclude *Client) []*Client {
	var failed []*Client
	for c := range r.clients {
		if c == exclude {
			continue
		}
		if err := c.Send(event); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		delete(r.clients, c)
	}
	return failed
}

func (h *Hub) drop(failed []*Client) {
	if len(failed) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range failed {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	for _, c := range failed {
		_ = c.Close()
	}
}
