/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which rate-limits and upgrades the request,
wraps the socket as a line transport, and hands it to the connection manager so websocket
clients go through the same handshake and pipeline as raw TCP clients.
*/
package handler

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"shogid/internal/app/conn"
	"shogid/internal/pkg/errs"
	"shogid/internal/pkg/limiter"
	"shogid/internal/pkg/logx"
	"shogid/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection established, starting handshake", "ip", ip)

		go deps.Connections.HandleTransport(newWSTransport(socket))
	}
}

// wsTransport adapts a websocket connection to the line transport the
// connection layer is built on. One text frame carries one protocol line.
type wsTransport struct {
	socket *websocket.Conn
}

func newWSTransport(socket *websocket.Conn) conn.Transport {
	return &wsTransport{socket: socket}
}

func (t *wsTransport) ReadLine() (string, error) {
	for {
		kind, payload, err := t.socket.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(payload), "\r\n"), nil
	}
}

func (t *wsTransport) WriteLine(line string) error {
	return t.socket.WriteMessage(websocket.TextMessage, []byte(line))
}

func (t *wsTransport) SetReadDeadline(deadline time.Time) error {
	return t.socket.SetReadDeadline(deadline)
}

func (t *wsTransport) RemoteAddr() net.Addr {
	return t.socket.RemoteAddr()
}

func (t *wsTransport) Close() error {
	return t.socket.Close()
}
