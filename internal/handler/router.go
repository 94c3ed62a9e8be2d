/*
Package handler provides the HTTP handlers and routing setup for the operational gateway.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (status and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"shogid/internal/pkg/limiter"
	"shogid/internal/pkg/logx"
	"shogid/internal/pkg/resp"
)

const (
	WSConnectRate  = 0.2
	WSConnectBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It configures CORS, applies global middleware, and exposes the health,
// stats, and WebSocket endpoints.
func Router(deps *AppDeps) http.Handler {
	wsLimiter := limiter.NewIPRateLimiter(rate.Limit(WSConnectRate), WSConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "shogid",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Get("/stats", HandleStats(deps))

	r.Get("/ws", HandleWebSocket(wsUpgrader, wsLimiter, deps))

	return r
}

// HandleStats reports live counters for dashboards: logged-in users,
// registered rooms, and the depth of the two global message queues.
func HandleStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, output := deps.QueueDepths()

		data := map[string]int{
			"logged_in_users":    deps.Connections.NumLoggedIn(),
			"registered_rooms":   deps.Rooms.Count(),
			"input_queue_depth":  input,
			"output_queue_depth": output,
		}
		resp.RespondSuccess(w, r, data)
	}
}
