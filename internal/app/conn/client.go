/*
Package conn owns the network edge of the server.

This file defines Client, one established connection. A Client runs two
goroutines: a read pump that turns incoming lines into input queues for the
global input queue, and a write pump that drains a bounded send channel to the
socket. Exactly one write is in flight at a time, so messages to the same user
reach the socket in the order they were handed to Send.
*/
package conn

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
	"shogid/internal/pkg/errs"
	"shogid/internal/pkg/logx"
	"shogid/internal/pkg/randx"
)

const (
	// sendQueueCapacity bounds the per-connection queue of outgoing messages.
	sendQueueCapacity = 150

	// sendTimeout is how long Send blocks under backpressure before failing.
	sendTimeout = 2 * time.Second

	// ioFailureBudget is the number of read errors tolerated before the
	// connection is declared dead.
	ioFailureBudget = 3

	// inputPriority is the tier assigned to queues wrapping client lines.
	inputPriority = 1
)

// Client is one established, authenticated connection.
type Client struct {
	id        string
	usr       *user.User
	transport Transport

	inputQueue *protocol.GlobalInputQueue
	send       chan *protocol.Message

	// onClosed runs exactly once after teardown; the ConnectionManager uses
	// it to drop the table entry and fire the user-disconnected event.
	onClosed func(*Client)

	closeOnce sync.Once
	done      chan struct{}

	logger zerolog.Logger
}

// NewClient constructs a Client for an authenticated user and starts its
// read and write pumps.
func NewClient(usr *user.User, transport Transport, inputQueue *protocol.GlobalInputQueue, onClosed func(*Client)) *Client {
	id := randx.ConnID()
	clientLogger := logx.Logger().With().
		Str("component", "ClientConnection").
		Str("conn_id", id).
		Str("user_name", usr.Name).
		Logger()

	c := &Client{
		id:         id,
		usr:        usr,
		transport:  transport,
		inputQueue: inputQueue,
		send:       make(chan *protocol.Message, sendQueueCapacity),
		onClosed:   onClosed,
		done:       make(chan struct{}),
		logger:     clientLogger,
	}

	go c.readPump()
	go c.writePump()

	return c
}

// User returns the user this connection belongs to.
func (c *Client) User() *user.User {
	return c.usr
}

// ID returns the connection's correlation ID.
func (c *Client) ID() string {
	return c.id
}

// Alive reports whether the connection has not been torn down yet.
func (c *Client) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// readPump blocks on line reads, wrapping each line with the owning user as
// sender into an input queue for the global input queue. Once read failures
// exceed the budget the connection is marked dead and torn down.
func (c *Client) readPump() {
	failures := 0

	for {
		line, err := c.transport.ReadLine()
		if err != nil {
			if !c.Alive() {
				return
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info().Msg("Client closed the connection.")
				c.Close()
				return
			}

			failures++
			c.logger.Warn().Err(err).Int("failures", failures).Msg("Read error on client connection.")
			if failures > ioFailureBudget {
				c.logger.Warn().Msg("Read failure budget exceeded. Tearing down connection.")
				c.Close()
				return
			}
			continue
		}

		message := protocol.NewUserMessage(c.usr, line)
		c.inputQueue.Enqueue(protocol.NewInputQueueWithPriority(inputPriority, message))
	}
}

// writePump drains the send channel to the socket, one message at a time.
func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			if err := c.transport.WriteLine(message.Text()); err != nil {
				if c.Alive() {
					c.logger.Warn().Err(err).Msg("Write error on client connection. Tearing down.")
					c.Close()
				}
				return
			}
		}
	}
}

// Send queues a message for delivery to this client. Under backpressure it
// blocks up to sendTimeout, then fails with errs.ErrSendQueueFull rather than
// blocking the producer indefinitely.
func (c *Client) Send(message *protocol.Message) error {
	if !c.Alive() {
		return errs.NewError(errs.ErrConnectionClosed)
	}

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case c.send <- message:
		return nil
	case <-c.done:
		return errs.NewError(errs.ErrConnectionClosed)
	case <-timer.C:
		return errs.NewError(errs.ErrSendQueueFull, c.usr.Name)
	}
}

// Close tears the connection down: it closes the transport, stops both pumps,
// and runs the onClosed hook. Close is idempotent and safe from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		if err := c.transport.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Transport close error during teardown.")
		}

		c.logger.Info().Msg("Client connection closed.")

		if c.onClosed != nil {
			c.onClosed(c)
		}
	})
}
