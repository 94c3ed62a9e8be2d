/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
gateway responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: Connection and Handshake Errors
	ErrHandshakeFailed:   {Code: ErrHandshakeFailed, Message: "Handshake failed."},
	ErrAlreadyLoggedIn:   {Code: ErrAlreadyLoggedIn, Message: "User %s is already logged in."},
	ErrConnectionClosed:  {Code: ErrConnectionClosed, Message: "Connection is closed."},
	ErrSendQueueFull:     {Code: ErrSendQueueFull, Message: "Send queue full for user %s."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: User and Messaging Errors
	ErrNoSuchUser:    {Code: ErrNoSuchUser, Message: "No such user: %s."},
	ErrNotLoggedIn:   {Code: ErrNotLoggedIn, Message: "User %s is not logged in."},
	ErrRoomNotFound:  {Code: ErrRoomNotFound, Message: "Room %s does not exist."},
	ErrRoomNotJoined: {Code: ErrRoomNotJoined, Message: "Room %s has not been joined."},

	// 3xxx: Protocol Module Errors
	ErrDependenciesNotMet:  {Code: ErrDependenciesNotMet, Message: "Module dependencies not met."},
	ErrModuleKeyTaken:      {Code: ErrModuleKeyTaken, Message: "Protocol key %s is already registered."},
	ErrInvalidModuleConfig: {Code: ErrInvalidModuleConfig, Message: "Invalid module configuration."},

	// 5xxx: Internal System Errors
	ErrUnknown:             {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrDatabaseUnavailable: {Code: ErrDatabaseUnavailable, Message: "Database unavailable.", Status: http.StatusServiceUnavailable},
}
