package modules

import (
	"shogid/internal/app/protocol"
)

// AreYouThere is the presence-check module: it replies "yes" to any "ayt"
// message regardless of payload. It holds no state.
type AreYouThere struct{}

// NewAreYouThere constructs the presence-check module.
func NewAreYouThere() *AreYouThere {
	return &AreYouThere{}
}

// Key implements protocol.Module.
func (a *AreYouThere) Key() string { return "ayt" }

// Name implements protocol.Module.
func (a *AreYouThere) Name() string { return "AreYouThere" }

// Version implements protocol.Module.
func (a *AreYouThere) Version() string { return "0.1" }

// Dependencies implements protocol.Module.
func (a *AreYouThere) Dependencies() []string { return nil }

// Initialize implements protocol.Module.
func (a *AreYouThere) Initialize(cfg protocol.Config) error { return nil }

// Shutdown implements protocol.Module.
func (a *AreYouThere) Shutdown() {}

// ParseMessage replies "yes" to the sender.
func (a *AreYouThere) ParseMessage(m *protocol.Message) *protocol.OutputQueue {
	return protocol.NewOutputQueue(protocol.NewUserMessage(m.User(), "yes"))
}
