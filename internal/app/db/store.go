/*
Package db provides the SQL persistence collaborator: the connection pool,
embedded migrations, and the Store interface the rest of the server consumes
for user and room lookups.
*/
package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups for a userName or room name with no row.
var ErrNotFound = errors.New("db: not found")

// UserInfo is one row of the users table.
type UserInfo struct {
	Name        string
	Email       string
	Description string
}

// RoomInfo is one row of the rooms table: the persisted description and the
// owner userNames. Occupancy is runtime state and never stored.
type RoomInfo struct {
	Name        string
	Description string
	Owners      []string
}

// Store is the synchronous lookup interface consumed by the user registry and
// the room module. Implementations must be safe for concurrent use.
type Store interface {
	// GetUserInfo returns the profile row for userName, or ErrNotFound.
	GetUserInfo(ctx context.Context, userName string) (UserInfo, error)

	// EnsureUser inserts a row for userName if none exists.
	EnsureUser(ctx context.Context, userName string) error

	// GetRegisteredRooms returns the names of every registered room.
	GetRegisteredRooms(ctx context.Context) ([]string, error)

	// GetRoomInfo returns the persisted room row, or ErrNotFound.
	GetRoomInfo(ctx context.Context, roomName string) (RoomInfo, error)
}
