package websocket

import (
	"errors"
	"sort"
	"sync"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrConnectionExists   = errors.New("connection already registered")
	ErrConnectionNotFound = errors.New("connection not registered")
)

type connectionEntry struct {
	userID uuid.UUID
	rooms  map[domain.RoomID]struct{}
}

// Registry indexes live connections by ID and by room. A connection is in a
// room exactly when it subscribed and has not since unsubscribed or been
// unregistered. One lock guards both maps; readers share it.
type Registry struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*connectionEntry
	rooms       map[domain.RoomID]map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[uuid.UUID]*connectionEntry),
		rooms:       make(map[domain.RoomID]map[uuid.UUID]struct{}),
	}
}

func (r *Registry) Register(connID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[connID]; exists {
		return ErrConnectionExists
	}
	r.connections[connID] = &connectionEntry{
		userID: userID,
		rooms:  make(map[domain.RoomID]struct{}),
	}
	return nil
}

// Subscribe adds the connection to the room. It reports whether the
// membership is new; subscribing twice is a no-op.
func (r *Registry) Subscribe(connID uuid.UUID, roomID domain.RoomID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.connections[connID]
	if !ok {
		return false, ErrConnectionNotFound
	}
	if _, already := entry.rooms[roomID]; already {
		return false, nil
	}

	entry.rooms[roomID] = struct{}{}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		r.rooms[roomID] = members
	}
	members[connID] = struct{}{}
	return true, nil
}

// Unsubscribe removes the connection from the room and reports whether it
// was a member. Unknown connections and rooms are ignored.
func (r *Registry) Unsubscribe(connID uuid.UUID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.connections[connID]
	if !ok {
		return false
	}
	if _, member := entry.rooms[roomID]; !member {
		return false
	}

	delete(entry.rooms, roomID)
	r.removeMemberLocked(roomID, connID)
	return true
}

// Unregister drops the connection from every room and forgets it. It
// returns the rooms the connection was in, in ascending order.
func (r *Registry) Unregister(connID uuid.UUID) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.connections[connID]
	if !ok {
		return nil
	}

	rooms := make([]domain.RoomID, 0, len(entry.rooms))
	for roomID := range entry.rooms {
		r.removeMemberLocked(roomID, connID)
		rooms = append(rooms, roomID)
	}
	delete(r.connections, connID)

	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}

func (r *Registry) removeMemberLocked(roomID domain.RoomID, connID uuid.UUID) {
	members := r.rooms[roomID]
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// MembersOf returns a snapshot of the room's connections.
func (r *Registry) MembersOf(roomID domain.RoomID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[roomID]
	out := make([]uuid.UUID, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	return out
}

// RoomsOf returns the rooms a connection is subscribed to, in ascending order.
func (r *Registry) RoomsOf(connID uuid.UUID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.connections[connID]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(entry.rooms))
	for roomID := range entry.rooms {
		out = append(out, roomID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) UserOf(connID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.connections[connID]
	if !ok {
		return uuid.Nil, false
	}
	return entry.userID, true
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
