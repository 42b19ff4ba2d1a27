package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezhost/panel/internal/api"
	"github.com/ezhost/panel/internal/events"
	"github.com/ezhost/panel/internal/launcher"
	"github.com/ezhost/panel/internal/monitoring"
	"github.com/ezhost/panel/internal/orchestrator"
	"github.com/ezhost/panel/internal/rcon"
	"github.com/ezhost/panel/internal/registry"
	"github.com/ezhost/panel/internal/websocket"
	"github.com/ezhost/panel/pkg/config"
	"github.com/ezhost/panel/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.New(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.LogJSON)
	logger.SetDefault(appLogger)

	logger.Info("Starting application", map[string]interface{}{
		"app":   cfg.AppName,
		"debug": cfg.Debug,
		"port":  cfg.Port,
	})

	// Event history storage and bus
	eventStorage, err := events.OpenDatabaseStorage(cfg.EventsDB)
	if err != nil {
		logger.Fatal("Failed to open event storage", err, nil)
	}
	bus := events.NewBus(eventStorage)
	logger.Info("Event bus initialized", map[string]interface{}{
		"database": cfg.EventsDB,
	})

	// Server registry (single JSON document)
	reg, err := registry.Open(cfg.DataFile)
	if err != nil {
		logger.Fatal("Failed to open server registry", err, nil)
	}
	monitoring.ManagedServers.Set(float64(len(reg.List())))
	logger.Info("Registry loaded", map[string]interface{}{
		"file":    cfg.DataFile,
		"servers": len(reg.List()),
	})

	// WebSocket hub for registry and status pushes
	wsHub := websocket.NewHub()
	go wsHub.Run()
	defer wsHub.Shutdown()
	logger.Info("WebSocket hub started", nil)

	// Every registry write pushes the fresh list to connected clients
	reg.SetChangeListener(func() {
		wsHub.Broadcast("servers_changed", reg.List())
	})

	// Lifecycle orchestrator
	run := launcher.New(cfg.LaunchTimeout, launcher.DefaultMatcher())
	channel := rcon.NewChannel(cfg.RCONHost, cfg.RCONPort)
	orch := orchestrator.New(reg, run, channel, bus, wsHub, cfg.StopGrace)

	// API handlers
	handler := api.NewHandler(orch, reg, cfg)
	consoleHandler := api.NewConsoleHandler(orch)
	systemHandler := api.NewSystemHandler(reg, bus, wsHub)

	router := api.SetupRouter(handler, consoleHandler, systemHandler, cfg)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gracefully...", nil)
		wsHub.Shutdown()

		// Managed servers keep running; their statuses are reconciled
		// by the next check-status sweep after restart.
		logger.Info("Shutdown complete", nil)
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("Server starting", map[string]interface{}{
		"address":      addr,
		"health_check": fmt.Sprintf("http://localhost%s/health", addr),
	})

	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", err, nil)
	}
}
