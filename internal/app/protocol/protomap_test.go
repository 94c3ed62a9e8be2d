package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shogid/internal/app/user"
	"shogid/internal/pkg/errs"
)

// stubModule is a configurable Module for registry tests.
type stubModule struct {
	key          string
	name         string
	version      string
	dependencies []string

	initErr     error
	initialized bool
	shutdowns   int

	parse func(m *Message) *OutputQueue
}

func (s *stubModule) Key() string            { return s.key }
func (s *stubModule) Name() string           { return s.name }
func (s *stubModule) Version() string        { return s.version }
func (s *stubModule) Dependencies() []string { return s.dependencies }
func (s *stubModule) Shutdown()              { s.shutdowns++ }

func (s *stubModule) Initialize(cfg Config) error {
	if s.initErr != nil {
		return s.initErr
	}
	s.initialized = true
	return nil
}

func (s *stubModule) ParseMessage(m *Message) *OutputQueue {
	if s.parse != nil {
		return s.parse(m)
	}
	return NewOutputQueue(NewUserMessage(m.User(), s.key+" ok"))
}

func newStub(key, name, version string, deps ...string) *stubModule {
	return &stubModule{key: key, name: name, version: version, dependencies: deps}
}

func TestMap_LoadRegistersAndInitializes(t *testing.T) {
	p := NewMap()

	mod := newStub("echo", "Echo", "0.1")
	require.NoError(t, p.Load(mod, nil))

	assert.True(t, mod.initialized)
	assert.Equal(t, 1, p.Loaded())
}

func TestMap_LoadRejectsOccupiedKey(t *testing.T) {
	p := NewMap()
	require.NoError(t, p.Load(newStub("echo", "Echo", "0.1"), nil))

	err := p.Load(newStub("echo", "OtherEcho", "0.1"), nil)
	require.Error(t, err)

	var custom *errs.CustomError
	require.ErrorAs(t, err, &custom)
	assert.Equal(t, errs.ErrModuleKeyTaken, custom.Code)
	assert.Equal(t, 1, p.Loaded())
}

func TestMap_LoadDependencies(t *testing.T) {
	tests := []struct {
		name      string
		preloaded []*stubModule
		module    *stubModule
		wantUnmet []string
	}{
		{
			name:      "met by exact version",
			preloaded: []*stubModule{newStub("tell", "Tell", "0.1")},
			module:    newStub("room", "Room", "0.1", "Tell 0.1"),
		},
		{
			name:      "met by newer minor version",
			preloaded: []*stubModule{newStub("tell", "Tell", "0.12")},
			module:    newStub("room", "Room", "0.1", "Tell 0.2"),
		},
		{
			name:      "unmet when nothing is loaded",
			module:    newStub("room", "Room", "0.1", "Tell 0.1"),
			wantUnmet: []string{"Tell 0.1"},
		},
		{
			name:      "unmet by older version",
			preloaded: []*stubModule{newStub("tell", "Tell", "0.1")},
			module:    newStub("room", "Room", "0.1", "Tell 0.2"),
			wantUnmet: []string{"Tell 0.2"},
		},
		{
			name:      "all unmet dependencies are reported",
			preloaded: []*stubModule{newStub("tell", "Tell", "0.1")},
			module:    newStub("game", "Game", "0.1", "Tell 0.1", "Clock 1.0", "Board 0.3"),
			wantUnmet: []string{"Clock 1.0", "Board 0.3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMap()
			for _, pre := range tt.preloaded {
				require.NoError(t, p.Load(pre, nil))
			}

			err := p.Load(tt.module, nil)
			if tt.wantUnmet == nil {
				require.NoError(t, err)
				return
			}

			var depErr *errs.DependencyError
			require.ErrorAs(t, err, &depErr)
			assert.Equal(t, tt.module.name, depErr.Module)
			assert.Equal(t, tt.wantUnmet, depErr.Unmet)
			assert.False(t, tt.module.initialized)
		})
	}
}

func TestMap_LoadWrapsInitializeFailure(t *testing.T) {
	p := NewMap()

	mod := newStub("motd", "MessageOfTheDay", "0.1")
	mod.initErr = errors.New("missing required configuration key \"file\"")

	err := p.Load(mod, Config{})

	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "MessageOfTheDay", cfgErr.Component)
	assert.Equal(t, 0, p.Loaded())
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		have string
		want string
		ok   bool
	}{
		{"0.1", "0.1", true},
		{"0.2", "0.1", true},
		{"0.1", "0.2", false},
		{"1.0", "0.9", true},
		{"0.12", "0.9", true},
		{"0.9", "0.12", false},
		{"1", "0.1", false},
		{"x.1", "0.1", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s>=%s", tt.have, tt.want), func(t *testing.T) {
			assert.Equal(t, tt.ok, versionAtLeast(tt.have, tt.want))
		})
	}
}

func TestMap_ParseMessagesDispatchesByKey(t *testing.T) {
	p := NewMap()
	alice := &user.User{Name: "alice"}

	echo := newStub("echo", "Echo", "0.1")
	echo.parse = func(m *Message) *OutputQueue {
		reply := NewUserMessage(m.User(), "echo")
		reply.Append(m.Payload())
		return NewOutputQueue(reply)
	}
	require.NoError(t, p.Load(echo, nil))

	input := NewInputQueue(
		NewUserMessage(alice, "echo hello"),
		NewUserMessage(alice, "echo again"),
	)

	output := p.ParseMessages(input)

	require.Equal(t, 2, output.Len())
	assert.Equal(t, "echo hello", output.Dequeue().Text())
	assert.Equal(t, "echo again", output.Dequeue().Text())
}

func TestMap_ParseMessagesUnknownKey(t *testing.T) {
	p := NewMap()
	alice := &user.User{Name: "alice"}

	output := p.ParseMessages(NewInputQueue(NewUserMessage(alice, "xyz whatever")))

	reply := output.Dequeue()
	require.NotNil(t, reply)
	assert.Equal(t, "invalid xyz", reply.Text())
	require.NotNil(t, reply.User())
	assert.Equal(t, "alice", reply.User().Name)
	assert.Nil(t, output.Dequeue())
}

func TestMap_UnloadByName(t *testing.T) {
	p := NewMap()

	mod := newStub("echo", "Echo", "0.1")
	require.NoError(t, p.Load(mod, nil))

	p.Unload("Echo")
	assert.Equal(t, 1, mod.shutdowns)
	assert.Equal(t, 0, p.Loaded())

	// unloading again is a no-op
	p.Unload("Echo")
	assert.Equal(t, 1, mod.shutdowns)

	// the key is free for a replacement
	require.NoError(t, p.Load(newStub("echo", "Echo", "0.2"), nil))
}

func TestMap_ShutdownIsIdempotent(t *testing.T) {
	p := NewMap()

	a := newStub("a", "A", "0.1")
	b := newStub("b", "B", "0.1")
	require.NoError(t, p.Load(a, nil))
	require.NoError(t, p.Load(b, nil))

	p.Shutdown()
	p.Shutdown()

	assert.Equal(t, 1, a.shutdowns)
	assert.Equal(t, 1, b.shutdowns)
	assert.Equal(t, 0, p.Loaded())
}
