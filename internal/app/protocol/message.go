/*
Package protocol contains the data model and dispatch machinery for the
line-oriented wire protocol: messages, priority-tagged message queues, the
process-wide priority queues, and the protocol module registry.

This file defines Message, the unit of protocol traffic. A message is a
whitespace-normalized text line split into a protocol key (first token) and a
payload (remaining tokens), carrying the associated user: the sender on input,
the recipient on output.
*/
package protocol

import (
	"strings"

	"shogid/internal/app/user"
)

// Message represents one protocol line and its associated user.
// The zero value is an empty message with no user.
type Message struct {
	// tokens holds the whitespace-normalized text: tokens[0] is the protocol
	// key, the rest are the payload. Empty slice means empty message.
	tokens []string

	// usr is the sender on inbound messages and the recipient on outbound ones.
	usr *user.User
}

// NewMessage constructs a Message from a raw text line. The line is trimmed
// and runs of whitespace collapse to single separators.
func NewMessage(text string) *Message {
	return &Message{tokens: splitTokens(text)}
}

// NewUserMessage constructs a Message from a raw text line bound to a user.
func NewUserMessage(usr *user.User, text string) *Message {
	return &Message{tokens: splitTokens(text), usr: usr}
}

func splitTokens(text string) []string {
	return strings.Fields(text)
}

// Key returns the protocol key (the first token), or "" for an empty message.
func (m *Message) Key() string {
	if len(m.tokens) == 0 {
		return ""
	}
	return m.tokens[0]
}

// Payload returns the message payload as a single space-joined string.
// It returns "" when the message has fewer than two tokens.
func (m *Message) Payload() string {
	if len(m.tokens) < 2 {
		return ""
	}
	return strings.Join(m.tokens[1:], " ")
}

// TokenizedPayload returns the payload tokens. The returned slice is a copy;
// mutating it does not affect the message.
func (m *Message) TokenizedPayload() []string {
	if len(m.tokens) < 2 {
		return nil
	}
	payload := make([]string, len(m.tokens)-1)
	copy(payload, m.tokens[1:])
	return payload
}

// Text returns the full whitespace-normalized line: the key followed by the
// payload, single-space separated, with no leading or trailing whitespace.
func (m *Message) Text() string {
	return strings.Join(m.tokens, " ")
}

// Append trims the argument, splits it on runs of whitespace, and appends the
// resulting tokens to the payload. A pure-whitespace argument is a no-op and
// must not introduce a spurious separator.
func (m *Message) Append(tokens string) string {
	m.tokens = append(m.tokens, splitTokens(tokens)...)
	return m.Text()
}

// SetKey rewrites the first token only, preserving the payload. On an empty
// message the payload stays empty and the trimmed key becomes the whole text.
// A whitespace-only key leaves the message unchanged.
func (m *Message) SetKey(key string) string {
	fields := splitTokens(key)
	if len(fields) == 0 {
		return m.Text()
	}

	if len(m.tokens) == 0 {
		m.tokens = fields
		return m.Text()
	}

	m.tokens = append(fields, m.tokens[1:]...)
	return m.Text()
}

// User returns the user associated with the message, or nil.
func (m *Message) User() *user.User {
	return m.usr
}

// SetUser associates the message with a user.
func (m *Message) SetUser(usr *user.User) {
	m.usr = usr
}
