/*
Package server is the process-composition root. It constructs the global
queues, the managers, and the protocol module registry, wires them together
by reference, and drives the two dispatch loops that connect them: input
queue → protocol map → output queue, and output queue → client connections.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"shogid/internal/app/conn"
	"shogid/internal/app/db"
	"shogid/internal/app/event"
	"shogid/internal/app/modules"
	"shogid/internal/app/modules/room"
	"shogid/internal/app/protocol"
	"shogid/internal/app/user"
	"shogid/internal/configs"
	"shogid/internal/pkg/errs"
	"shogid/internal/pkg/limiter"
	"shogid/internal/pkg/logx"
)

const (
	// connectRate and connectBurst bound connection attempts per client IP.
	connectRate  = 1.0
	connectBurst = 5
)

// Server owns the assembled message pipeline.
type Server struct {
	cfg   *configs.AppConfig
	store db.Store

	inputQueue  *protocol.GlobalInputQueue
	outputQueue *protocol.GlobalOutputQueue

	users       *user.Manager
	events      *event.Manager
	connections *conn.Manager
	protoMap    *protocol.Map
	rooms       *room.Manager

	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// New assembles a Server from configuration and the persistence collaborator.
// Configuration failures are fatal; a protocol module whose dependencies are
// unmet is skipped with an error log while the rest of the server comes up.
func New(cfg *configs.AppConfig, store db.Store) (*Server, error) {
	s := &Server{
		cfg:         cfg,
		store:       store,
		inputQueue:  protocol.NewGlobalInputQueue(),
		outputQueue: protocol.NewGlobalOutputQueue(),
		events:      event.NewManager(),
		protoMap:    protocol.NewMap(),
		logger:      logx.Logger().With().Str("component", "Server").Logger(),
	}

	s.events.RegisterEvent(event.UserConnected)
	s.events.RegisterEvent(event.UserDisconnected)

	s.users = user.NewManager(store)
	s.connections = conn.NewManager(
		s.users,
		s.events,
		s.inputQueue,
		limiter.NewIPRateLimiter(rate.Limit(connectRate), connectBurst),
	)

	if err := s.loadProtocolModules(); err != nil {
		return nil, err
	}

	return s, nil
}

// loadProtocolModules loads the built-in modules in dependency order.
// Dependency failures abort only the affected module; invalid module
// configuration aborts startup.
func (s *Server) loadProtocolModules() error {
	load := func(module protocol.Module, cfg protocol.Config) error {
		err := s.protoMap.Load(module, cfg)

		var depErr *errs.DependencyError
		if errors.As(err, &depErr) {
			s.logger.Error().Err(depErr).Str("module", module.Name()).
				Msg("Skipping protocol module with unmet dependencies.")
			return nil
		}
		return err
	}

	if err := load(modules.NewAreYouThere(), nil); err != nil {
		return fmt.Errorf("load AreYouThere: %w", err)
	}

	if err := load(modules.NewTell(s.connections, s.users), nil); err != nil {
		return fmt.Errorf("load Tell: %w", err)
	}

	if s.cfg.MOTDFile != "" {
		motd := modules.NewMessageOfTheDay(s.events, s.users, s.inputQueue)
		if err := load(motd, protocol.Config{"file": s.cfg.MOTDFile}); err != nil {
			return fmt.Errorf("load MessageOfTheDay: %w", err)
		}
	} else {
		s.logger.Warn().Msg("MOTD_FILE not configured. Message-of-the-day module disabled.")
	}

	s.rooms = room.NewManager(s.store, s.users, s.events, s.inputQueue)
	if err := load(s.rooms, nil); err != nil {
		return fmt.Errorf("load Room: %w", err)
	}

	return nil
}

// Run starts the dispatch loops and the TCP acceptor. It returns once the
// listener is bound; the loops run until Shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.inputLoop(ctx)
	go s.outputLoop(ctx)

	return s.connections.Listen(fmt.Sprintf(":%d", s.cfg.Port))
}

// inputLoop pulls input queues from the global input queue and hands each to
// the protocol map, pushing the concatenated replies to the output queue.
func (s *Server) inputLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		input, err := s.inputQueue.DequeueWait(ctx)
		if err != nil {
			return
		}

		output := s.protoMap.ParseMessages(input)
		if !output.IsEmpty() {
			s.outputQueue.Enqueue(output)
		}
	}
}

// outputLoop drains the global output queue and forwards each message to the
// addressed user's connection. Messages for users without a live connection
// are dropped with a debug log; a full send queue is a visible warn.
func (s *Server) outputLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		output, err := s.outputQueue.DequeueWait(ctx)
		if err != nil {
			return
		}

		for message := output.Dequeue(); message != nil; message = output.Dequeue() {
			recipient := message.User()
			if recipient == nil {
				s.logger.Warn().Str("text", message.Text()).Msg("Dropping reply with no recipient.")
				continue
			}

			client, ok := s.connections.UserConnection(recipient)
			if !ok {
				s.logger.Debug().Str("user_name", recipient.Name).
					Msg("Dropping reply for user without a live connection.")
				continue
			}

			if err := client.Send(message); err != nil {
				s.logger.Warn().Err(err).Str("user_name", recipient.Name).
					Msg("Failed to deliver reply.")
			}
		}
	}
}

// Shutdown stops accepting, disconnects every client, stops the loops, and
// unloads every protocol module. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.connections.Shutdown()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.protoMap.Shutdown()

	s.logger.Info().Msg("Server shutdown complete.")
}

// Connections exposes the connection manager to the operational gateway.
func (s *Server) Connections() *conn.Manager {
	return s.connections
}

// Rooms exposes the room module to the operational gateway.
func (s *Server) Rooms() *room.Manager {
	return s.rooms
}

// QueueDepths reports the pending item counts of the two global queues.
func (s *Server) QueueDepths() (input, output int) {
	return s.inputQueue.Len(), s.outputQueue.Len()
}
