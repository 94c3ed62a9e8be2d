package modules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shogid/internal/app/event"
	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
)

func writeMOTDFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motd.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o600))
	return path
}

func newMOTDFixture(t *testing.T) (*MessageOfTheDay, *event.Manager, *protocol.GlobalInputQueue, *user.User) {
	t.Helper()

	alice := &user.User{Name: "alice"}
	events := event.NewManager()
	require.True(t, events.RegisterEvent(event.UserConnected))
	inputQueue := protocol.NewGlobalInputQueue()

	motd := NewMessageOfTheDay(events, newFakeResolver(alice), inputQueue)
	return motd, events, inputQueue, alice
}

func TestMessageOfTheDay_InitializeRequiresFile(t *testing.T) {
	motd, _, _, _ := newMOTDFixture(t)

	err := motd.Initialize(protocol.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestMessageOfTheDay_InitializeUnreadableFile(t *testing.T) {
	motd, _, _, _ := newMOTDFixture(t)

	err := motd.Initialize(protocol.Config{"file": "/nonexistent/motd.txt"})
	require.Error(t, err)
}

func TestMessageOfTheDay_ParseMessageRepliesLinesThenDone(t *testing.T) {
	motd, _, _, alice := newMOTDFixture(t)

	path := writeMOTDFile(t, "Welcome to the server\nTournament on Sunday\n")
	require.NoError(t, motd.Initialize(protocol.Config{"file": path}))

	output := motd.ParseMessage(protocol.NewUserMessage(alice, "motd"))

	first := output.Dequeue()
	require.NotNil(t, first)
	assert.Equal(t, "motd message Welcome to the server", first.Text())
	assert.Same(t, alice, first.User())

	second := output.Dequeue()
	require.NotNil(t, second)
	assert.Equal(t, "motd message Tournament on Sunday", second.Text())

	done := output.Dequeue()
	require.NotNil(t, done)
	assert.Equal(t, "motd done", done.Text())
	assert.Nil(t, output.Dequeue())
}

func TestMessageOfTheDay_EmptyFileStillRepliesDone(t *testing.T) {
	motd, _, _, alice := newMOTDFixture(t)

	path := writeMOTDFile(t, "")
	require.NoError(t, motd.Initialize(protocol.Config{"file": path}))

	output := motd.ParseMessage(protocol.NewUserMessage(alice, "motd"))

	done := output.Dequeue()
	require.NotNil(t, done)
	assert.Equal(t, "motd done", done.Text())
	assert.Nil(t, output.Dequeue())
}

func TestMessageOfTheDay_PushesOnLogin(t *testing.T) {
	motd, events, inputQueue, alice := newMOTDFixture(t)

	path := writeMOTDFile(t, "Welcome\n")
	require.NoError(t, motd.Initialize(protocol.Config{"file": path}))

	events.Fire(event.UserConnected, event.Data{"userName": alice.Name})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	queued, err := inputQueue.DequeueWait(ctx)
	require.NoError(t, err)

	pushed := queued.Dequeue()
	require.NotNil(t, pushed)
	assert.Equal(t, "motd", pushed.Key())
	assert.Same(t, alice, pushed.User())
}

func TestMessageOfTheDay_IgnoresUnresolvableLoginEvents(t *testing.T) {
	motd, events, inputQueue, _ := newMOTDFixture(t)

	path := writeMOTDFile(t, "Welcome\n")
	require.NoError(t, motd.Initialize(protocol.Config{"file": path}))

	events.Fire(event.UserConnected, event.Data{"userName": "ghost"})

	assert.Equal(t, 0, inputQueue.Len())
}
