package modules

import (
	"context"
	"errors"

	"shogid/internal/app/protocol"
	"shogid/internal/pkg/errs"
)

// Tell is the single-target direct-message module. A valid message is
// "tell <recipient> <word> [word]*"; on success the message is relabeled with
// the sender's name and addressed to the recipient. Semantic failures are
// answered to the sender with a distinguishing invalid reply instead of being
// delivered. Tell holds no state of its own.
type Tell struct {
	presence Presence
	users    UserResolver
}

// NewTell constructs the direct-message module.
func NewTell(presence Presence, users UserResolver) *Tell {
	return &Tell{presence: presence, users: users}
}

// Key implements protocol.Module.
func (t *Tell) Key() string { return "tell" }

// Name implements protocol.Module.
func (t *Tell) Name() string { return "Tell" }

// Version implements protocol.Module.
func (t *Tell) Version() string { return "0.1" }

// Dependencies implements protocol.Module.
func (t *Tell) Dependencies() []string { return nil }

// Initialize implements protocol.Module.
func (t *Tell) Initialize(cfg protocol.Config) error { return nil }

// Shutdown implements protocol.Module.
func (t *Tell) Shutdown() {}

// ParseMessage validates and routes one direct message.
func (t *Tell) ParseMessage(m *protocol.Message) *protocol.OutputQueue {
	payload := m.TokenizedPayload()
	response := protocol.NewMessage(t.Key())

	if len(payload) < 2 {
		response.Append("invalid")
		response.Append("syntax")
		response.Append(m.Payload())
		response.SetUser(m.User())
		return protocol.NewOutputQueue(response)
	}

	recipientName := payload[0]
	recipient, err := t.users.Lookup(context.Background(), recipientName)
	if err != nil {
		subcode := "no_such_user"

		var custom *errs.CustomError
		if errors.As(err, &custom) && custom.Code != errs.ErrNoSuchUser {
			// Lookup infrastructure failure: the recipient may well exist,
			// but without a resolved identity there is no deliverable target.
			subcode = "not_logged_in"
		}

		response.Append("invalid")
		response.Append(subcode)
		response.Append(recipientName)
		response.SetUser(m.User())
		return protocol.NewOutputQueue(response)
	}

	if !t.presence.CheckUserLoggedIn(recipient) {
		response.Append("invalid")
		response.Append("not_logged_in")
		response.Append(recipientName)
		response.SetUser(m.User())
		return protocol.NewOutputQueue(response)
	}

	response.SetUser(recipient)
	response.Append(m.User().Name)
	for _, word := range payload[1:] {
		response.Append(word)
	}
	return protocol.NewOutputQueue(response)
}
