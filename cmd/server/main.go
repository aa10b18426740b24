// Package main provides the entry point for the portfolio projection server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/portfolio-sim/internal/api"
	"github.com/atlas-desktop/portfolio-sim/internal/config"
	"github.com/atlas-desktop/portfolio-sim/internal/data"
	"github.com/atlas-desktop/portfolio-sim/internal/logging"
	"github.com/atlas-desktop/portfolio-sim/internal/montecarlo"
	"github.com/atlas-desktop/portfolio-sim/internal/telemetry"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Config file (yaml or json)")
	host := flag.String("host", "", "Server host")
	port := flag.Int("port", 0, "Server port")
	dataDir := flag.String("data", "", "Data directory")
	sqliteDSN := flag.String("sqlite", "", "SQLite price database (overrides -data)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	workers := flag.Int("workers", 0, "Path simulation workers")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags set on the command line win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "data":
			cfg.Data.DataDir = *dataDir
		case "sqlite":
			cfg.Data.SQLiteDSN = *sqliteDSN
		case "log-level":
			cfg.Log.Level = *logLevel
		case "workers":
			cfg.Engine.Workers = *workers
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.New(cfg.Log.Level, "stdout")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting portfolio projection server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Data.DataDir),
		zap.Int("workers", cfg.Engine.Workers),
		zap.Int64("max_cost", cfg.Engine.MaxCost),
	)

	// Initialize price store
	provider, err := data.Open(logger, cfg.Data)
	if err != nil {
		logger.Fatal("Failed to initialize price store", zap.Error(err))
	}
	defer provider.Close()

	metrics := telemetry.NewMetrics()
	engine := montecarlo.NewEngine(logger.Named("engine"), &cfg.Engine, provider, metrics)
	server := api.NewServer(logger.Named("api"), &cfg.Server, engine, provider, metrics)

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	logger.Info("Server started successfully",
		zap.String("http", fmt.Sprintf("http://%s:%d/api/v1", cfg.Server.Host, cfg.Server.Port)),
	)

	// Wait for shutdown signal
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
	}

	// Graceful server shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
