/*
Package conn owns the network edge of the server: the transport abstraction
over raw sockets, the per-connection reader/writer tasks, and the
ConnectionManager that accepts sockets, runs the login handshake, and keeps
the table of live connections.

This file defines Transport, the minimal line-oriented interface a connection
is built on, and its TCP implementation. The gateway contributes a websocket
implementation so both kinds of clients share one handshake and pipeline.
*/
package conn

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"
)

// Transport is one bidirectional stream of text lines. Implementations need
// not be safe for concurrent use of the same direction; the connection layer
// guarantees a single reader and a single writer per transport.
type Transport interface {
	// ReadLine blocks until one line is available and returns it without the
	// trailing newline. io.EOF signals a clean end of stream.
	ReadLine() (string, error)

	// WriteLine writes one line followed by a newline and flushes it.
	WriteLine(line string) error

	// SetReadDeadline bounds subsequent ReadLine calls. The zero time clears
	// the deadline.
	SetReadDeadline(t time.Time) error

	// RemoteAddr returns the peer address, for logging and rate limiting.
	RemoteAddr() net.Addr

	// Close tears the stream down. Close is idempotent.
	Close() error
}

// maxLineBytes bounds the length of a single protocol line.
const maxLineBytes = 64 * 1024

type tcpTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
}

// NewTCPTransport wraps a stream socket in the line-oriented Transport.
func NewTCPTransport(c net.Conn) Transport {
	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	return &tcpTransport{
		conn:    c,
		scanner: scanner,
		writer:  bufio.NewWriter(c),
	}
}

func (t *tcpTransport) ReadLine() (string, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return t.scanner.Text(), nil
}

func (t *tcpTransport) WriteLine(line string) error {
	if _, err := fmt.Fprintf(t.writer, "%s\n", line); err != nil {
		return err
	}
	return t.writer.Flush()
}

func (t *tcpTransport) SetReadDeadline(deadline time.Time) error {
	return t.conn.SetReadDeadline(deadline)
}

func (t *tcpTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}
