/*
Package conn owns the network edge of the server.

This file defines the ConnectionManager: the TCP acceptor, the ping/pong/login
handshake that promotes a raw socket to an authenticated Client, and the table
of live user→connection entries. It is the only component permitted to look up
a live connection for a user.
*/
package conn

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shogid/internal/app/event"
	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
	"shogid/internal/pkg/limiter"
	"shogid/internal/pkg/logx"
)

const (
	// maxHandshakeRetries is the number of lines tolerated before the "ping"
	// connection request must have arrived.
	maxHandshakeRetries = 3

	// handshakeTimeout bounds the whole ping/pong/login exchange.
	handshakeTimeout = 30 * time.Second
)

// Manager accepts new sockets, performs the login handshake, and maintains
// the live user→connection table.
type Manager struct {
	users      *user.Manager
	events     *event.Manager
	inputQueue *protocol.GlobalInputQueue
	limiter    *limiter.IPRateLimiter

	mu    sync.RWMutex
	table map[string]*Client

	listener  net.Listener
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	logger zerolog.Logger
}

// NewManager constructs a ConnectionManager. The rate limiter may be nil, in
// which case connection attempts are not limited.
func NewManager(users *user.Manager, events *event.Manager, inputQueue *protocol.GlobalInputQueue, lim *limiter.IPRateLimiter) *Manager {
	return &Manager{
		users:      users,
		events:     events,
		inputQueue: inputQueue,
		limiter:    lim,
		table:      make(map[string]*Client),
		closed:     make(chan struct{}),
		logger:     logx.Logger().With().Str("component", "ConnectionManager").Logger(),
	}
}

// Listen binds the TCP listener and starts the acceptor goroutine.
func (m *Manager) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	m.listener = listener

	m.wg.Add(1)
	go m.acceptLoop()

	m.logger.Info().Str("addr", listener.Addr().String()).Msg("Accepting client connections.")
	return nil
}

func (m *Manager) acceptLoop() {
	defer m.wg.Done()

	for {
		socket, err := m.listener.Accept()
		if err != nil {
			select {
			case <-m.closed:
				return
			default:
			}
			m.logger.Warn().Err(err).Msg("Accept failed.")
			continue
		}

		if m.limiter != nil && !m.limiter.AllowAddr(socket.RemoteAddr()) {
			m.logger.Warn().Str("remote", socket.RemoteAddr().String()).
				Msg("Connection rejected: rate limit exceeded.")
			socket.Close()
			continue
		}

		go m.HandleTransport(NewTCPTransport(socket))
	}
}

// HandleTransport runs the login handshake on a fresh transport and, on
// success, registers the resulting Client in the connection table. Handshake
// failures close the transport silently; nothing is surfaced to the peer
// beyond a log line. The gateway calls this directly for websocket clients.
func (m *Manager) HandleTransport(transport Transport) {
	remote := transport.RemoteAddr().String()

	if m.isClosed() {
		transport.Close()
		return
	}

	userName, ok := m.handshake(transport)
	if !ok {
		m.logger.Info().Str("remote", remote).Msg("Handshake rejected.")
		transport.Close()
		return
	}

	usr := m.users.GetOrCreate(context.Background(), userName)

	m.mu.Lock()
	// A handshake that was in flight when Shutdown ran must not register a
	// client behind the already-drained table.
	if m.isClosed() {
		m.mu.Unlock()
		m.logger.Info().Str("user_name", usr.Name).Str("remote", remote).
			Msg("Login rejected: manager is shut down.")
		transport.Close()
		return
	}
	if _, dup := m.table[usr.Name]; dup {
		m.mu.Unlock()
		m.logger.Warn().Str("user_name", usr.Name).Str("remote", remote).
			Msg("Login rejected: user already connected.")
		transport.Close()
		return
	}

	client := NewClient(usr, transport, m.inputQueue, m.clientClosed)
	m.table[usr.Name] = client
	m.mu.Unlock()

	m.logger.Info().
		Str("user_name", usr.Name).
		Str("conn_id", client.ID()).
		Str("remote", remote).
		Msg("Client connection established.")

	m.events.Fire(event.UserConnected, event.Data{"userName": usr.Name})
}

// isClosed reports whether Shutdown has begun.
func (m *Manager) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// handshake drives the per-socket state machine:
// AWAIT_PING → SENT_PONG → AWAIT_LOGIN. It returns the authenticated
// userName, or ok=false when the socket must be rejected.
func (m *Manager) handshake(transport Transport) (userName string, ok bool) {
	if err := transport.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return "", false
	}
	defer transport.SetReadDeadline(time.Time{})

	pinged := false
	for attempt := 0; attempt < maxHandshakeRetries; attempt++ {
		line, err := transport.ReadLine()
		if err != nil {
			return "", false
		}
		if line == "ping" {
			pinged = true
			break
		}
	}
	if !pinged {
		return "", false
	}

	if err := transport.WriteLine("pong"); err != nil {
		return "", false
	}

	line, err := transport.ReadLine()
	if err != nil {
		return "", false
	}

	login := protocol.NewMessage(line)
	payload := login.TokenizedPayload()
	if login.Key() != "login" || len(payload) != 2 {
		return "", false
	}

	// payload[1] is the password token; authentication beyond the userName
	// match is out of scope.
	return payload[0], true
}

// clientClosed is the Client teardown hook: it drops the table entry if it
// still points at this client and fires the user-disconnected event.
func (m *Manager) clientClosed(c *Client) {
	m.mu.Lock()
	current, ok := m.table[c.User().Name]
	if ok && current == c {
		delete(m.table, c.User().Name)
	}
	m.mu.Unlock()

	if ok && current == c {
		m.events.Fire(event.UserDisconnected, event.Data{"userName": c.User().Name})
	}
}

// CheckUserLoggedIn reports whether the user holds a live connection.
func (m *Manager) CheckUserLoggedIn(usr *user.User) bool {
	if usr == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.table[usr.Name]
	return ok
}

// UserConnection returns the live connection for the user. It is consumed by
// the output dispatcher only; protocol modules must never write to
// connections directly.
func (m *Manager) UserConnection(usr *user.User) (*Client, bool) {
	if usr == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.table[usr.Name]
	return c, ok
}

// Addr returns the bound listener address, or nil before Listen.
func (m *Manager) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// NumLoggedIn returns the number of live connections.
func (m *Manager) NumLoggedIn() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.table)
}

// DisconnectUser removes the user's table entry and tears the connection
// down. Disconnecting a user who is not connected is a no-op.
func (m *Manager) DisconnectUser(usr *user.User) {
	client, ok := m.UserConnection(usr)
	if !ok {
		return
	}
	client.Close()
}

// Shutdown stops accepting new connections, then disconnects every live
// connection. It is safe to call more than once.
func (m *Manager) Shutdown() {
	alreadyClosed := true
	m.closeOnce.Do(func() {
		close(m.closed)
		alreadyClosed = false
	})
	if alreadyClosed {
		return
	}

	if m.listener != nil {
		m.listener.Close()
		m.wg.Wait()
	}

	m.mu.RLock()
	clients := make([]*Client, 0, len(m.table))
	for _, c := range m.table {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}

	m.logger.Info().Int("disconnected", len(clients)).Msg("Connection manager shut down.")
}
