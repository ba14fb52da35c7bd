/*
Package chat contains the core of the relay.

This file defines the Registry, the single shared mutable structure of the
system: which live connections belong to which room. One mutex covers every
membership mutation and snapshot, and no I/O ever happens under it.
*/
package chat

import "sync"

// Registry maps room names to their live member connections and each
// connection back to its current room. A connection is registered to at
// most one room at a time.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	byConn map[*Client]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Client]struct{}),
		byConn: make(map[*Client]string),
	}
}

// Join registers c as a member of room, auto-creating the room on first
// join. A connection already registered elsewhere is moved, so Join is
// idempotent per connection.
func (r *Registry) Join(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[c]; ok {
		if prev == room {
			return
		}
		r.removeLocked(prev, c)
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}

	members[c] = struct{}{}
	r.byConn[c] = room
}

// Leave removes c from whatever room it is registered to. Leaving while
// unregistered is a no-op, never an error.
func (r *Registry) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.byConn[c]
	if !ok {
		return
	}

	r.removeLocked(room, c)
}

// Members returns a snapshot of the room's current member set. The slice
// is the caller's to keep; later joins and leaves do not affect it.
func (r *Registry) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	if len(members) == 0 {
		return nil
	}

	snapshot := make([]*Client, 0, len(members))
	for c := range members {
		snapshot = append(snapshot, c)
	}

	return snapshot
}

// Room reports which room c is currently registered to.
func (r *Registry) Room(c *Client) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.byConn[c]
	return room, ok
}

// removeLocked drops c from room and deletes the room entry once empty.
// Callers hold the write lock.
func (r *Registry) removeLocked(room string, c *Client) {
	if members, ok := r.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}

	delete(r.byConn, c)
}
