/*
Package modules contains the leaf protocol modules: the presence check, the
direct-message handler, and the message-of-the-day broadcast.

This file declares the narrow interfaces the modules consume, so they depend
on capabilities rather than on the connection and user managers directly.
*/
package modules

import (
	"context"

	"shogid/internal/app/user"
)

// Presence answers whether a user currently holds a live connection.
// *conn.Manager satisfies it.
type Presence interface {
	CheckUserLoggedIn(usr *user.User) bool
}

// UserResolver resolves userNames to shared User instances.
// *user.Manager satisfies it.
type UserResolver interface {
	Lookup(ctx context.Context, userName string) (*user.User, error)
}
