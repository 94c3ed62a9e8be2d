/*
Package room implements the multi-user room protocol module.

This file defines the Manager, the protocol module registered under the "room"
key. It owns the room table, dispatches list/info/join/leave/tell by payload
shape, and reacts to the user-disconnected event by re-injecting "room leave"
messages so a disconnect is observationally identical to an explicit leave for
every other occupant.
*/
package room

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"shogid/internal/app/db"
	"shogid/internal/app/event"
	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
	"shogid/internal/pkg/logx"
)

// UserResolver resolves userNames to shared User instances.
type UserResolver interface {
	Lookup(ctx context.Context, userName string) (*user.User, error)
}

// Manager is the room protocol module.
type Manager struct {
	store      db.Store
	users      UserResolver
	events     *event.Manager
	inputQueue *protocol.GlobalInputQueue

	mu        sync.RWMutex
	roomTable map[string]*Room

	logger zerolog.Logger
}

// NewManager constructs the room module.
func NewManager(store db.Store, users UserResolver, events *event.Manager, inputQueue *protocol.GlobalInputQueue) *Manager {
	return &Manager{
		store:      store,
		users:      users,
		events:     events,
		inputQueue: inputQueue,
		logger:     logx.Logger().With().Str("component", "RoomManager").Logger(),
	}
}

// Key implements protocol.Module.
func (m *Manager) Key() string { return "room" }

// Name implements protocol.Module.
func (m *Manager) Name() string { return "Room" }

// Version implements protocol.Module.
func (m *Manager) Version() string { return "0.1" }

// Dependencies implements protocol.Module.
func (m *Manager) Dependencies() []string { return []string{"Tell 0.1"} }

// Initialize loads every registered room from the database collaborator and
// registers the disconnect callback. Descriptions and owners are read once
// and kept in memory for the process lifetime; there is no write-back.
func (m *Manager) Initialize(cfg protocol.Config) error {
	ctx := context.Background()

	roomNames, err := m.store.GetRegisteredRooms(ctx)
	if err != nil {
		return err
	}

	table := make(map[string]*Room, len(roomNames))
	for _, roomName := range roomNames {
		info, err := m.store.GetRoomInfo(ctx, roomName)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				m.logger.Warn().Str("room", roomName).Msg("Registered room has no info row. Skipping.")
				continue
			}
			return err
		}

		owners := make([]*user.User, 0, len(info.Owners))
		for _, ownerName := range info.Owners {
			owner, err := m.users.Lookup(ctx, ownerName)
			if err != nil {
				m.logger.Warn().Str("room", roomName).Str("owner", ownerName).
					Msg("Dropping unresolvable room owner.")
				continue
			}
			owners = append(owners, owner)
		}

		table[roomName] = newRoom(roomName, info.Description, owners)
	}

	m.mu.Lock()
	m.roomTable = table
	m.mu.Unlock()

	m.events.RegisterCallback(event.UserDisconnected, m.Name(), m.onUserDisconnected)

	m.logger.Info().Int("rooms", len(table)).Msg("Room table loaded.")
	return nil
}

// onUserDisconnected synthesizes a "room leave" input message for every room
// the departing user occupied, reusing the leave code path so the fan-out and
// membership bookkeeping stay in one place.
func (m *Manager) onUserDisconnected(data event.Data) {
	userName, ok := data["userName"]
	if !ok {
		return
	}

	usr, err := m.users.Lookup(context.Background(), userName)
	if err != nil {
		return
	}

	for _, r := range m.rooms() {
		if r.Contains(usr) {
			leave := protocol.NewUserMessage(usr, "room leave "+r.Name())
			m.inputQueue.Enqueue(protocol.NewInputQueue(leave))
		}
	}
}

// Shutdown implements protocol.Module.
func (m *Manager) Shutdown() {}

// Count returns the number of rooms in the table.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.roomTable)
}

func (m *Manager) room(roomName string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roomTable[roomName]
}

func (m *Manager) rooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Room, 0, len(m.roomTable))
	for _, r := range m.roomTable {
		all = append(all, r)
	}
	return all
}

func (m *Manager) roomNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.roomTable))
	for name := range m.roomTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseMessage dispatches one "room" message by payload arity and first token.
func (m *Manager) ParseMessage(message *protocol.Message) *protocol.OutputQueue {
	payload := message.TokenizedPayload()

	switch len(payload) {
	case 0:
		break

	case 1:
		if payload[0] == "list" {
			return m.listReply(message)
		}

	case 2:
		switch payload[0] {
		case "info":
			return m.infoReply(message, payload[1])
		case "join":
			return m.joinReplies(message, payload[1])
		case "leave":
			return m.leaveReplies(message, payload[1])
		}

	default:
		if payload[0] == "tell" {
			return m.tellReplies(message, payload[1], payload[2:])
		}
	}

	return m.invalidSyntaxReply(message)
}

func (m *Manager) invalidSyntaxReply(message *protocol.Message) *protocol.OutputQueue {
	return protocol.NewOutputQueue(
		protocol.NewUserMessage(message.User(), m.Key()+" invalid syntax"))
}

func (m *Manager) listReply(message *protocol.Message) *protocol.OutputQueue {
	reply := protocol.NewUserMessage(message.User(), m.Key()+" list")
	for _, name := range m.roomNames() {
		reply.Append(name)
	}
	return protocol.NewOutputQueue(reply)
}

func (m *Manager) infoReply(message *protocol.Message, roomName string) *protocol.OutputQueue {
	r := m.room(roomName)
	if r == nil {
		return protocol.NewOutputQueue(
			protocol.NewUserMessage(message.User(), m.Key()+" info invalid room_not_exist"))
	}

	output := protocol.NewOutputQueue()
	output.Enqueue(protocol.NewUserMessage(message.User(), m.Key()+" info name "+r.Name()))

	description := protocol.NewUserMessage(message.User(), m.Key()+" info description")
	description.Append(r.Description())
	output.Enqueue(description)

	occupants := protocol.NewUserMessage(message.User(), m.Key()+" info occupants")
	for _, occupant := range r.Occupants() {
		occupants.Append(occupant.Name)
	}
	output.Enqueue(occupants)

	owners := protocol.NewUserMessage(message.User(), m.Key()+" info owners")
	for _, owner := range r.Owners() {
		owners.Append(owner.Name)
	}
	output.Enqueue(owners)

	return output
}

// joinReplies establishes membership before computing the occupant list, so
// the fan-out includes the joiner itself.
func (m *Manager) joinReplies(message *protocol.Message, roomName string) *protocol.OutputQueue {
	r := m.room(roomName)

	var occupants []*user.User
	joined := false
	if r != nil {
		occupants, joined = r.Join(message.User())
	}

	if !joined {
		return protocol.NewOutputQueue(
			protocol.NewUserMessage(message.User(), m.Key()+" join invalid room_not_exist"))
	}

	output := protocol.NewOutputQueue()
	for _, occupant := range occupants {
		reply := protocol.NewUserMessage(occupant, m.Key()+" join")
		reply.Append(r.Name())
		reply.Append(message.User().Name)
		output.Enqueue(reply)
	}
	return output
}

// leaveReplies notifies every remaining occupant plus the leaver, who is no
// longer in the occupant set at notification time.
func (m *Manager) leaveReplies(message *protocol.Message, roomName string) *protocol.OutputQueue {
	r := m.room(roomName)

	var remaining []*user.User
	left := false
	if r != nil {
		remaining, left = r.Leave(message.User())
	}

	if !left {
		return protocol.NewOutputQueue(
			protocol.NewUserMessage(message.User(), m.Key()+" leave invalid room_not_joined"))
	}

	output := protocol.NewOutputQueue()
	recipients := append(remaining, message.User())
	for _, recipient := range recipients {
		reply := protocol.NewUserMessage(recipient, m.Key()+" leave")
		reply.Append(r.Name())
		reply.Append(message.User().Name)
		output.Enqueue(reply)
	}
	return output
}

func (m *Manager) tellReplies(message *protocol.Message, roomName string, words []string) *protocol.OutputQueue {
	r := m.room(roomName)
	if r == nil {
		return protocol.NewOutputQueue(
			protocol.NewUserMessage(message.User(), m.Key()+" tell invalid room_not_exist"))
	}

	occupants, member := r.OccupantsIfMember(message.User())
	if !member {
		return protocol.NewOutputQueue(
			protocol.NewUserMessage(message.User(), m.Key()+" tell invalid room_not_joined"))
	}

	output := protocol.NewOutputQueue()
	for _, occupant := range occupants {
		reply := protocol.NewUserMessage(occupant, m.Key()+" tell")
		reply.Append(r.Name())
		reply.Append(message.User().Name)
		for _, word := range words {
			reply.Append(word)
		}
		output.Enqueue(reply)
	}
	return output
}
