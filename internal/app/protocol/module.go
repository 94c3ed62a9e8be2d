/*
Package protocol contains the data model and dispatch machinery for the
line-oriented wire protocol.

This file defines the Module contract every protocol handler implements, and
the configuration bag handed to modules and services at initialize time.
*/
package protocol

// Config is the key/value configuration bag supplied to Initialize of every
// protocol module.
type Config map[string]string

// Get returns the value for key, or the empty string when absent.
func (c Config) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Module is the capability interface implemented by every protocol handler.
//
// ParseMessage must be safe to invoke concurrently for different messages:
// the registry does not serialize calls across different keys, so a module
// holding mutable state is responsible for its own synchronization.
type Module interface {
	// Key returns the protocol key this module handles (the first token of
	// matching lines). One module occupies a key at a time.
	Key() string

	// Name returns the module's registered name, used in dependency strings.
	Name() string

	// Version returns the module version as "<major>.<minor>".
	Version() string

	// Dependencies returns the list of "Name Version" dependency strings that
	// must be satisfied by already-loaded modules before this one loads.
	Dependencies() []string

	// Initialize prepares the module with its configuration bag. A non-nil
	// error aborts the load.
	Initialize(cfg Config) error

	// Shutdown releases module resources. It must be safe to call in any
	// order relative to other modules' shutdowns.
	Shutdown()

	// ParseMessage handles one protocol message and returns the replies it
	// produced, possibly empty, never nil.
	ParseMessage(m *Message) *OutputQueue
}
