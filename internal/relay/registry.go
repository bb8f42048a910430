// Package relay owns the room registry: lazy room creation, lookup, membership
// bookkeeping, and the idle sweep that reclaims abandoned rooms.
package relay

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Registry maps room codes to Rooms. Its mutex is the single mutual-exclusion
// domain for every room and membership mutation, so concurrent connection
// events and the sweeper never race on shared state.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	log   *logrus.Entry
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		log:   logrus.WithField("component", "registry"),
	}
}

// GetOrCreate returns the Room for code, constructing and inserting a new one
// with empty membership if the code has not been seen. It never fails.
func (reg *Registry) GetOrCreate(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := reg.rooms[code]
	if room == nil {
		room = newRoom(code, time.Now())
		reg.rooms[code] = room
		roomsCreated.Inc()
		reg.log.WithField("room", code).Info("Room created")
	}
	return room
}

// Lookup returns the Room for code, or nil when the code was never created or
// the room has since been reaped. Callers treat nil as a no-op, not an error.
func (reg *Registry) Lookup(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[code]
}

// Join adds sess to room and refreshes its activity timestamp, returning the
// member count after insertion.
func (reg *Registry) Join(room *Room, sess *Session, now time.Time) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room.members[sess] = struct{}{}
	room.lastActive = now
	return len(room.members)
}

// Leave removes sess from room and refreshes its activity timestamp, so an
// emptied room survives for the full idle threshold before being reaped.
func (reg *Registry) Leave(room *Room, sess *Session, now time.Time) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(room.members, sess)
	room.lastActive = now
}

// Touch refreshes room's activity timestamp.
func (reg *Registry) Touch(room *Room, now time.Time) {
	reg.mu.Lock()
	room.lastActive = now
	reg.mu.Unlock()
}

// Members returns a snapshot of room's current membership, safe to iterate
// without holding the registry lock.
func (reg *Registry) Members(room *Room) []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	members := make([]*Session, 0, len(room.members))
	for sess := range room.members {
		members = append(members, sess)
	}
	return members
}

// Counts returns every known room code mapped to its current member count.
func (reg *Registry) Counts() map[string]int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	counts := make(map[string]int, len(reg.rooms))
	for code, room := range reg.rooms {
		counts[code] = len(room.members)
	}
	return counts
}

// Sweep deletes every room that is empty and has been inactive for longer
// than idleThreshold, returning the number of rooms removed. This is the only
// path that removes rooms.
func (reg *Registry) Sweep(now time.Time, idleThreshold time.Duration) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reaped := 0
	for code, room := range reg.rooms {
		if len(room.members) == 0 && now.Sub(room.lastActive) > idleThreshold {
			delete(reg.rooms, code)
			reaped++
			reg.log.WithField("room", code).Info("Idle room reaped")
		}
	}
	if reaped > 0 {
		roomsReaped.Add(float64(reaped))
	}
	return reaped
}
