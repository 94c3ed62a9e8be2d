package room

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shogid/internal/app/db"
	"shogid/internal/app/event"
	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
	"shogid/internal/pkg/errs"
)

// fakeStore serves a fixed room table. Names in stale are reported as
// registered but have no info row.
type fakeStore struct {
	rooms map[string]db.RoomInfo
	stale []string
}

func newFakeStore(rooms ...db.RoomInfo) *fakeStore {
	s := &fakeStore{rooms: make(map[string]db.RoomInfo)}
	for _, r := range rooms {
		s.rooms[r.Name] = r
	}
	return s
}

func (s *fakeStore) GetUserInfo(ctx context.Context, userName string) (db.UserInfo, error) {
	return db.UserInfo{}, db.ErrNotFound
}

func (s *fakeStore) EnsureUser(ctx context.Context, userName string) error {
	return nil
}

func (s *fakeStore) GetRegisteredRooms(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.rooms)+len(s.stale))
	for name := range s.rooms {
		names = append(names, name)
	}
	names = append(names, s.stale...)
	sort.Strings(names)
	return names, nil
}

func (s *fakeStore) GetRoomInfo(ctx context.Context, roomName string) (db.RoomInfo, error) {
	info, ok := s.rooms[roomName]
	if !ok {
		return db.RoomInfo{}, db.ErrNotFound
	}
	return info, nil
}

// fakeResolver resolves a fixed set of users.
type fakeResolver struct {
	users map[string]*user.User
}

func newFakeResolver(users ...*user.User) *fakeResolver {
	r := &fakeResolver{users: make(map[string]*user.User)}
	for _, u := range users {
		r.users[u.Name] = u
	}
	return r
}

func (r *fakeResolver) Lookup(ctx context.Context, userName string) (*user.User, error) {
	u, ok := r.users[userName]
	if !ok {
		return nil, errs.NewError(errs.ErrNoSuchUser, userName)
	}
	return u, nil
}

type fixture struct {
	manager    *Manager
	events     *event.Manager
	inputQueue *protocol.GlobalInputQueue
	alice      *user.User
	bob        *user.User
	carol      *user.User
}

func newFixture(t *testing.T, rooms ...db.RoomInfo) *fixture {
	t.Helper()

	f := &fixture{
		events:     event.NewManager(),
		inputQueue: protocol.NewGlobalInputQueue(),
		alice:      &user.User{Name: "alice"},
		bob:        &user.User{Name: "bob"},
		carol:      &user.User{Name: "carol"},
	}
	require.True(t, f.events.RegisterEvent(event.UserDisconnected))

	if rooms == nil {
		rooms = []db.RoomInfo{
			{Name: "lobby", Description: "General discussion", Owners: []string{"carol"}},
			{Name: "study", Description: "Opening study", Owners: nil},
		}
	}

	f.manager = NewManager(
		newFakeStore(rooms...),
		newFakeResolver(f.alice, f.bob, f.carol),
		f.events,
		f.inputQueue,
	)
	require.NoError(t, f.manager.Initialize(nil))
	return f
}

// drain collects every reply as "recipient: text" pairs.
func drain(output *protocol.OutputQueue) []string {
	var replies []string
	for m := output.Dequeue(); m != nil; m = output.Dequeue() {
		recipient := "<none>"
		if m.User() != nil {
			recipient = m.User().Name
		}
		replies = append(replies, recipient+": "+m.Text())
	}
	return replies
}

func (f *fixture) parse(usr *user.User, text string) *protocol.OutputQueue {
	return f.manager.ParseMessage(protocol.NewUserMessage(usr, text))
}

func TestManager_InitializeLoadsRoomTable(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 2, f.manager.Count())
}

func TestManager_InitializeSkipsRoomsWithoutInfoRow(t *testing.T) {
	store := newFakeStore(db.RoomInfo{Name: "lobby"})
	store.stale = []string{"phantom"}

	events := event.NewManager()
	require.True(t, events.RegisterEvent(event.UserDisconnected))

	m := NewManager(store, newFakeResolver(), events, protocol.NewGlobalInputQueue())
	require.NoError(t, m.Initialize(nil))
	assert.Equal(t, 1, m.Count())
}

func TestManager_List(t *testing.T) {
	f := newFixture(t)

	replies := drain(f.parse(f.alice, "room list"))
	assert.Equal(t, []string{"alice: room list lobby study"}, replies)
}

func TestManager_Info(t *testing.T) {
	f := newFixture(t)

	// occupancy shows up in info
	drain(f.parse(f.bob, "room join lobby"))

	replies := drain(f.parse(f.alice, "room info lobby"))
	assert.Equal(t, []string{
		"alice: room info name lobby",
		"alice: room info description General discussion",
		"alice: room info occupants bob",
		"alice: room info owners carol",
	}, replies)
}

func TestManager_InfoUnknownRoom(t *testing.T) {
	f := newFixture(t)

	replies := drain(f.parse(f.alice, "room info dungeon"))
	assert.Equal(t, []string{"alice: room info invalid room_not_exist"}, replies)
}

func TestManager_JoinFansOutToAllOccupants(t *testing.T) {
	f := newFixture(t)

	replies := drain(f.parse(f.alice, "room join lobby"))
	assert.Equal(t, []string{"alice: room join lobby alice"}, replies)

	replies = drain(f.parse(f.bob, "room join lobby"))
	assert.ElementsMatch(t, []string{
		"alice: room join lobby bob",
		"bob: room join lobby bob",
	}, replies)
}

func TestManager_JoinUnknownRoom(t *testing.T) {
	f := newFixture(t)

	replies := drain(f.parse(f.alice, "room join dungeon"))
	assert.Equal(t, []string{"alice: room join invalid room_not_exist"}, replies)
}

func TestManager_LeaveNotifiesRemainingAndLeaver(t *testing.T) {
	f := newFixture(t)
	drain(f.parse(f.alice, "room join lobby"))
	drain(f.parse(f.bob, "room join lobby"))

	replies := drain(f.parse(f.alice, "room leave lobby"))
	assert.ElementsMatch(t, []string{
		"bob: room leave lobby alice",
		"alice: room leave lobby alice",
	}, replies)

	// alice no longer receives room traffic
	replies = drain(f.parse(f.bob, "room tell lobby hi all"))
	assert.Equal(t, []string{"bob: room tell lobby bob hi all"}, replies)
}

func TestManager_LeaveWithoutMembership(t *testing.T) {
	f := newFixture(t)

	replies := drain(f.parse(f.alice, "room leave lobby"))
	assert.Equal(t, []string{"alice: room leave invalid room_not_joined"}, replies)
}

func TestManager_TellFansOutToOccupants(t *testing.T) {
	f := newFixture(t)
	drain(f.parse(f.alice, "room join lobby"))
	drain(f.parse(f.bob, "room join lobby"))

	replies := drain(f.parse(f.alice, "room tell lobby hello there"))
	assert.ElementsMatch(t, []string{
		"alice: room tell lobby alice hello there",
		"bob: room tell lobby alice hello there",
	}, replies)
}

func TestManager_TellErrors(t *testing.T) {
	f := newFixture(t)
	drain(f.parse(f.bob, "room join lobby"))

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "unknown room",
			text: "room tell dungeon hello",
			want: "alice: room tell invalid room_not_exist",
		},
		{
			name: "not a member",
			text: "room tell lobby hello",
			want: "alice: room tell invalid room_not_joined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replies := drain(f.parse(f.alice, tt.text))
			assert.Equal(t, []string{tt.want}, replies)
		})
	}
}

func TestManager_InvalidSyntax(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{
		"room",
		"room dance",
		"room join",
		"room tell lobby",
		"room list extra",
	} {
		replies := drain(f.parse(f.alice, text))
		assert.Equal(t, []string{"alice: room invalid syntax"}, replies, "input %q", text)
	}
}

func TestManager_DisconnectSynthesizesLeaves(t *testing.T) {
	f := newFixture(t)
	drain(f.parse(f.alice, "room join lobby"))
	drain(f.parse(f.alice, "room join study"))
	drain(f.parse(f.bob, "room join lobby"))

	f.events.Fire(event.UserDisconnected, event.Data{"userName": "alice"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var synthesized []string
	for i := 0; i < 2; i++ {
		queued, err := f.inputQueue.DequeueWait(ctx)
		require.NoError(t, err)
		m := queued.Dequeue()
		require.NotNil(t, m)
		require.Same(t, f.alice, m.User())
		synthesized = append(synthesized, m.Text())
	}

	assert.ElementsMatch(t, []string{"room leave lobby", "room leave study"}, synthesized)
	assert.Equal(t, 0, f.inputQueue.Len())
}
