/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in responses from the operational gateway.
*/
package errs

// 1xxx: Connection and Handshake Errors
const (
	// ErrHandshakeFailed indicates that a new socket never completed the ping/pong/login exchange.
	ErrHandshakeFailed = 1001

	// ErrAlreadyLoggedIn indicates a login attempt for a userName that already holds a live connection.
	ErrAlreadyLoggedIn = 1002

	// ErrConnectionClosed indicates an operation on a connection that has already been torn down.
	ErrConnectionClosed = 1003

	// ErrSendQueueFull indicates the bounded per-connection output queue stayed full past the send timeout.
	ErrSendQueueFull = 1004

	// ErrRateLimitExceeded indicates that connection attempts from one address exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: User and Messaging Errors
const (
	// ErrNoSuchUser indicates a lookup for a userName unknown to the user registry and the database.
	ErrNoSuchUser = 2001

	// ErrNotLoggedIn indicates the target user exists but holds no live connection.
	ErrNotLoggedIn = 2002

	// ErrRoomNotFound indicates an operation on a room name absent from the room table.
	ErrRoomNotFound = 2101

	// ErrRoomNotJoined indicates a room operation by a user who is not an occupant.
	ErrRoomNotJoined = 2102
)

// 3xxx: Protocol Module Errors
const (
	// ErrDependenciesNotMet indicates a module load aborted because declared dependencies were unresolved.
	ErrDependenciesNotMet = 3001

	// ErrModuleKeyTaken indicates an attempt to load a module on a protocol key that is already occupied.
	ErrModuleKeyTaken = 3002

	// ErrInvalidModuleConfig indicates a module rejected its configuration bag at initialize time.
	ErrInvalidModuleConfig = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrDatabaseUnavailable indicates the SQL store could not serve a lookup.
	ErrDatabaseUnavailable = 5001
)
