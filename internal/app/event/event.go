/*
Package event provides the small synchronous pub/sub used for lifecycle
coordination between otherwise-independent components, such as notifying the
room module when a user's connection goes away.
*/
package event

import (
	"sync"

	"github.com/rs/zerolog"

	"shogid/internal/pkg/logx"
)

// Lifecycle event names fired by the connection layer.
const (
	// UserConnected fires after a successful login handshake.
	// Data carries "userName".
	UserConnected = "USER_CONNECT"

	// UserDisconnected fires after a connection is torn down.
	// Data carries "userName".
	UserDisconnected = "USER_DISCONNECT"
)

// Data is the key/value payload delivered with an event occurrence.
type Data map[string]string

// Callback handles one event occurrence. Callbacks are invoked synchronously
// and must not register or unregister callbacks mid-dispatch.
type Callback func(data Data)

// Manager maps event names to ordered callback lists. Events fire by name;
// callbacks run synchronously in registration order.
type Manager struct {
	mu        sync.RWMutex
	callbacks map[string][]registration
	logger    zerolog.Logger
}

type registration struct {
	id string
	cb Callback
}

// NewManager constructs an empty event Manager.
func NewManager() *Manager {
	return &Manager{
		callbacks: make(map[string][]registration),
		logger:    logx.Logger().With().Str("component", "EventManager").Logger(),
	}
}

// RegisterEvent declares an event name. It returns false when the name is
// already registered.
func (m *Manager) RegisterEvent(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.callbacks[name]; exists {
		return false
	}
	m.callbacks[name] = nil
	return true
}

// RegisterCallback appends a callback to the event's list. The id makes
// registration idempotent per callback/event pair: registering the same id
// twice for one event returns false and keeps the original position.
// Registering on an undeclared event returns false.
func (m *Manager) RegisterCallback(name, id string, cb Callback) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	regs, exists := m.callbacks[name]
	if !exists {
		m.logger.Warn().Str("event", name).Str("callback", id).
			Msg("Callback registration for undeclared event.")
		return false
	}

	for _, reg := range regs {
		if reg.id == id {
			return false
		}
	}

	m.callbacks[name] = append(regs, registration{id: id, cb: cb})
	return true
}

// Fire invokes every callback registered for the named event, synchronously,
// in registration order. Firing an undeclared event is a no-op.
func (m *Manager) Fire(name string, data Data) {
	m.mu.RLock()
	regs := make([]registration, len(m.callbacks[name]))
	copy(regs, m.callbacks[name])
	m.mu.RUnlock()

	for _, reg := range regs {
		reg.cb(data)
	}
}
