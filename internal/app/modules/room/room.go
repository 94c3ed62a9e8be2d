/*
Package room implements the multi-user room protocol module: a table of Room
entities with occupants, owners, and descriptions, and the join/leave/tell/
list/info operations with full-room fan-out.

This file defines the Room entity. Each Room carries its own lock so
membership changes and occupant snapshots stay consistent per room without a
global lock across all rooms.
*/
package room

import (
	"sync"

	"shogid/internal/app/user"
)

// Room is one named room: persisted description and owners sourced from the
// database at load time, plus the runtime occupant set.
type Room struct {
	name        string
	description string
	owners      []*user.User

	mu        sync.Mutex
	occupants []*user.User
}

func newRoom(name, description string, owners []*user.User) *Room {
	return &Room{
		name:        name,
		description: description,
		owners:      owners,
	}
}

// Name returns the room's unique name.
func (r *Room) Name() string { return r.name }

// Description returns the persisted room description.
func (r *Room) Description() string { return r.description }

// Owners returns the room owners resolved at load time.
func (r *Room) Owners() []*user.User { return r.owners }

// Join adds usr to the occupant set. On success it returns the occupant list
// including the joiner, snapshotted atomically with the membership change so
// the fan-out sees a consistent view. Joining a room the user already
// occupies fails.
func (r *Room) Join(usr *user.User) (occupants []*user.User, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOfLocked(usr) >= 0 {
		return nil, false
	}

	r.occupants = append(r.occupants, usr)
	return r.snapshotLocked(), true
}

// Leave removes usr from the occupant set. On success it returns the
// remaining occupants, snapshotted atomically with the removal; the leaver is
// no longer in the returned list.
func (r *Room) Leave(usr *user.User) (remaining []*user.User, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOfLocked(usr)
	if i < 0 {
		return nil, false
	}

	r.occupants = append(r.occupants[:i], r.occupants[i+1:]...)
	return r.snapshotLocked(), true
}

// Occupants returns a snapshot of the current occupant list.
func (r *Room) Occupants() []*user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// OccupantsIfMember returns an occupant snapshot only when usr is currently a
// member, so a room tell validates membership and captures its fan-out list
// in one consistent step.
func (r *Room) OccupantsIfMember(usr *user.User) (occupants []*user.User, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOfLocked(usr) < 0 {
		return nil, false
	}
	return r.snapshotLocked(), true
}

// Contains reports whether usr currently occupies the room.
func (r *Room) Contains(usr *user.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOfLocked(usr) >= 0
}

func (r *Room) indexOfLocked(usr *user.User) int {
	for i, occupant := range r.occupants {
		if occupant.Is(usr) {
			return i
		}
	}
	return -1
}

func (r *Room) snapshotLocked() []*user.User {
	snapshot := make([]*user.User, len(r.occupants))
	copy(snapshot, r.occupants)
	return snapshot
}
