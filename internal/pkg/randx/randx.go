/*
Package randx provides functions for generating unique identifiers.

It is primarily used to tag client connections with correlation IDs that follow
a connection through the log stream from handshake to teardown.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnID generates a standard UUID v4 string to serve as a unique identifier
// for a client connection.
func ConnID() string {
	return uuid.New().String()
}
