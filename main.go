package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/dicetown/config"
	"github.com/wfunc/dicetown/logger"
	"github.com/wfunc/dicetown/monitor"
	"github.com/wfunc/dicetown/persistence"
	"github.com/wfunc/dicetown/room"
	"github.com/wfunc/dicetown/server"
	"github.com/wfunc/dicetown/services"
)

// openStore picks the persistence backend named by database.driver.
func openStore(cfg config.DatabaseConfig) (persistence.Store, error) {
	pg := cfg.Postgres
	switch cfg.Driver {
	case config.DriverGormPostgres:
		return persistence.NewGormPostgres(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)
	case config.DriverGormSQLite:
		return persistence.NewGormSQLite(cfg.SQLite.Path)
	case config.DriverPostgres:
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)
	case config.DriverMemory:
		return persistence.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	// Initialize Database
	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()
	logger.Log.Infof("Database connection successful (%s).", cfg.Database.Driver)

	mon := monitor.NewMonitor("dicetown")
	metricsServer := mon.StartServer(cfg.Server.MetricsAddress)

	rooms := room.NewRoomManager()
	game := services.NewGameService(store,
		services.WithLocker(rooms),
		services.WithRecorder(mon),
		services.WithAutomationLimits(cfg.Game.Automation.MaxTurns, cfg.Game.Automation.MaxDecisions),
	)

	gameServer := server.NewGameServer(server.Options{
		Addr:        cfg.Server.HTTPAddress,
		RPCAddr:     cfg.Server.RPCAddress,
		Heartbeat:   cfg.Server.Heartbeat,
		IdleTimeout: cfg.Server.IdleTimeout,
		Gauges:      mon,
	}, game, rooms)

	errChan := make(chan error, 1)
	go func() {
		logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
		errChan <- gameServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Log.Errorf("Game server stopped: %v", err)
		}
	case sig := <-quit:
		logger.Log.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Game server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Metrics server shutdown: %v", err)
	}
}
