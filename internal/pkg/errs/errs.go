/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and includes a business code, a user-friendly message, and an HTTP status code used when
an error surfaces through the operational gateway.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"shogid/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It wraps the Go error interface, adding a business code and HTTP status code.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code used when the error is reported by the gateway.
	Status int
}

// Error implements the standard Go error interface. It returns a formatted
// error string containing the error code, HTTP status, and message.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs and returns a new *CustomError instance based on a predefined error code.
// The optional details parameter allows for formatting arguments (printf-style) to be supplied
// for the error message. If an unknown code is provided, it defaults to returning ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
			)
		}
	}

	return &customErr
}

// DependencyError reports a protocol module whose declared dependencies could
// not be resolved against the set of already-loaded modules. It carries the
// full unmet list so the caller can log or report every missing dependency,
// not just the first one encountered.
type DependencyError struct {
	// Module is the name of the module that failed to load.
	Module string

	// Unmet lists every unresolved dependency string ("Name Version").
	Unmet []string
}

// Error implements the standard Go error interface.
func (e *DependencyError) Error() string {
	return fmt.Sprintf("protocol module %s has unmet dependencies: %s",
		e.Module, strings.Join(e.Unmet, ", "))
}

// ConfigError reports an invalid or missing configuration value handed to a
// service or protocol module at initialize time. These are fatal at startup.
type ConfigError struct {
	// Component is the service or module that rejected its configuration.
	Component string

	// Key is the configuration key that was missing or invalid.
	Key string

	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the standard Go error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s (key %q): %s", e.Component, e.Key, e.Reason)
}
