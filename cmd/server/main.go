/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the two-part tariff billing server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML + environment), apply flags
  2. Initialize structured logging
  3. Initialize SQLite store
  4. Register Prometheus metrics
  5. Create engine, service and API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -addr    HTTP listen address (overrides TPT_ADDR)
  -db      SQLite database path (overrides TPT_DB)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/tpt.db"

  # Run with in-memory database and a config file
  TPT_CONFIG=./tpt.yaml ./server -db=":memory:"

SEE ALSO:
  - config/config.go: settings and environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/DEFRA/water-abstraction-service-sub002/api"
	"github.com/DEFRA/water-abstraction-service-sub002/billing"
	"github.com/DEFRA/water-abstraction-service-sub002/config"
	"github.com/DEFRA/water-abstraction-service-sub002/metrics"
	"github.com/DEFRA/water-abstraction-service-sub002/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "db_path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := cfg.Options()
	engine := billing.NewEngine(opts, logger.With("component", "engine"))
	svc := billing.NewService(engine, store, store, m, logger.With("component", "service"))
	handler := api.NewHandler(svc, store, logger.With("component", "api"))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			"addr", cfg.Addr,
			"db_path", cfg.DBPath,
			"purpose_codes", opts.TwoPartTariff.PurposeCodes,
			"section_127_code", opts.Section127Code,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		return
	}

	logger.Info("server stopped")
}
