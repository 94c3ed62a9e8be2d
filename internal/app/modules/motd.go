package modules

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"shogid/internal/app/event"
	"shogid/internal/app/protocol"
	"shogid/internal/pkg/logx"
)

// MessageOfTheDay replies to "motd" with one line per configured message
// line, terminated by a "done" sentinel. It also listens for the
// user-connected event and pushes itself proactively at login by re-injecting
// a "motd" request for the new user through the global input queue.
type MessageOfTheDay struct {
	events     *event.Manager
	users      UserResolver
	inputQueue *protocol.GlobalInputQueue

	lines []string
}

// NewMessageOfTheDay constructs the message-of-the-day module.
func NewMessageOfTheDay(events *event.Manager, users UserResolver, inputQueue *protocol.GlobalInputQueue) *MessageOfTheDay {
	return &MessageOfTheDay{
		events:     events,
		users:      users,
		inputQueue: inputQueue,
	}
}

// Key implements protocol.Module.
func (m *MessageOfTheDay) Key() string { return "motd" }

// Name implements protocol.Module.
func (m *MessageOfTheDay) Name() string { return "MessageOfTheDay" }

// Version implements protocol.Module.
func (m *MessageOfTheDay) Version() string { return "0.1" }

// Dependencies implements protocol.Module.
func (m *MessageOfTheDay) Dependencies() []string { return nil }

// Initialize loads the message lines from the file named by the "file"
// configuration key and registers the login push callback.
func (m *MessageOfTheDay) Initialize(cfg protocol.Config) error {
	path := cfg.Get("file")
	if path == "" {
		return fmt.Errorf("missing required configuration key %q", "file")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("configuration file %s is not readable: %w", path, err)
	}
	defer f.Close()

	m.lines = nil
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.lines = append(m.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("configuration file %s is not readable: %w", path, err)
	}

	m.events.RegisterCallback(event.UserConnected, m.Name(), m.onUserConnected)
	return nil
}

func (m *MessageOfTheDay) onUserConnected(data event.Data) {
	userName, ok := data["userName"]
	if !ok {
		return
	}

	usr, err := m.users.Lookup(context.Background(), userName)
	if err != nil {
		logx.Warn("Skipping MOTD push for unresolvable user.", "user_name", userName)
		return
	}

	m.inputQueue.Enqueue(protocol.NewInputQueue(protocol.NewUserMessage(usr, m.Key())))
}

// Shutdown implements protocol.Module.
func (m *MessageOfTheDay) Shutdown() {}

// ParseMessage replies with the configured message lines and the sentinel.
func (m *MessageOfTheDay) ParseMessage(msg *protocol.Message) *protocol.OutputQueue {
	output := protocol.NewOutputQueue()

	for _, line := range m.lines {
		reply := protocol.NewUserMessage(msg.User(), "motd message")
		reply.Append(line)
		output.Enqueue(reply)
	}
	output.Enqueue(protocol.NewUserMessage(msg.User(), "motd done"))

	return output
}
