package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xwirehq/xwire-server/cmd/server/internal/api"
	"github.com/xwirehq/xwire-server/cmd/server/internal/config"
	"github.com/xwirehq/xwire-server/cmd/server/internal/core"
	"github.com/xwirehq/xwire-server/cmd/server/internal/echo"
	"github.com/xwirehq/xwire-server/cmd/server/internal/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init()
	logger.Info("Starting xwire-server...",
		"listen_addr", cfg.ListenAddr,
		"poll_interval", cfg.AcceptPollInterval,
		"max_frame_bytes", cfg.MaxFrameBytes)

	// Create and start the TCP server
	server := core.New(cfg, echo.NewHandler(cfg.MaxFrameBytes))
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", "error", err)
	}
	logger.Info("Server is ready to accept connections", "addr", server.LocalAddr().String())

	// Start the health server (optional)
	var healthServer *api.HealthServer
	if cfg.HealthServerEnabled {
		healthServer = api.NewHealthServer(":"+cfg.HealthServerPort, server)
		healthServer.Start()
		healthServer.SetReady(true)
		logger.Info("Health server started", "port", cfg.HealthServerPort)
	}

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received signal, shutting down", "signal", sig.String())

	server.Stop()

	if healthServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthServer.Stop(ctx); err != nil {
			logger.Error("Health server shutdown error", "error", err)
		}
	}
}
