/*
Package main is the entry point for the shogid game server.

It is responsible for loading configuration, initializing the global logging system,
connecting to the database, assembling the message pipeline, starting the TCP
listener and the HTTP operational gateway, and gracefully handling operating
system interrupt signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shogid/internal/app/db"
	"shogid/internal/app/server"
	"shogid/internal/configs"
	"shogid/internal/handler"
	"shogid/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Int("gateway_port", cfg.GatewayPort).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("motd_file", cfg.MOTDFile).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database and run migrations
	store, err := db.NewPgStore(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to the database")
	}
	defer store.Close()

	// Assemble the message pipeline and load the protocol modules
	srv, err := server.New(cfg, store)
	if err != nil {
		logx.Fatal(err, "Failed to assemble the server")
	}

	// Start the dispatch loops and the TCP listener
	if err := srv.Run(); err != nil {
		logx.Fatal(err, "Failed to start the game listener")
	}
	logx.Info(fmt.Sprintf("Game server listening on :%d", cfg.Port))

	// Setup the HTTP operational gateway
	router := handler.Router(&handler.AppDeps{
		Config:      cfg,
		Connections: srv.Connections(),
		Rooms:       srv.Rooms(),
		QueueDepths: srv.QueueDepths,
	})

	gatewayAddr := fmt.Sprintf(":%d", cfg.GatewayPort)
	gateway := &http.Server{
		Addr:         gatewayAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Gateway starting on http://localhost%s", gatewayAddr))
		if err := gateway.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Gateway failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Gateway forced to shutdown")
	}

	srv.Shutdown()

	logx.Info("Server gracefully stopped.")
}
