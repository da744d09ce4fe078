/*
main.go - Application entry point

PURPOSE:
  Starts the Projet RH server: HR records and payroll over a JSON API.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (YAML file, .env, PROJETRH_* variables)
  3. Build the logger
  4. Open the SQLite store
  5. Create the HR and payroll services, the API handler and router
  6. Start the period scheduler and the HTTP server

COMMAND-LINE FLAGS:
  --config  YAML configuration file (default: $PROJETRH_CONFIG)
  --port    HTTP server port, overrides the configuration
  --db      SQLite database path, overrides the configuration
            Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the period scheduler
  2. Stop accepting new connections
  3. Wait for active requests (server.shutdown_timeout)
  4. Close the database

SEE ALSO:
  - config/config.go: configuration sources
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Mohamedkandolo/Projet-RH/api"
	"github.com/Mohamedkandolo/Projet-RH/config"
	"github.com/Mohamedkandolo/Projet-RH/hr"
	"github.com/Mohamedkandolo/Projet-RH/payroll"
	"github.com/Mohamedkandolo/Projet-RH/store/sqlite"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, dbPath string
	var port int

	flagSet := pflag.NewFlagSet("projet-rh", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML configuration file (default: $PROJETRH_CONFIG)")
	flagSet.IntVar(&port, "port", 0, "HTTP server port (overrides the configuration)")
	flagSet.StringVar(&dbPath, "db", "", `SQLite database path, ":memory:" for a throwaway database`)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(configPath, bootLogger)
	if err != nil {
		return err
	}
	if flagSet.Changed("port") {
		cfg.Server.Port = port
	}
	if flagSet.Changed("db") {
		cfg.Database.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	hrSvc := hr.NewService(store, logger)
	paySvc := payroll.NewService(store, logger)
	paySvc.WorkedDays = cfg.Payroll.DefaultWorkedDays
	paySvc.WorkedHours = cfg.Payroll.DefaultWorkedHours

	authorizer, err := api.NewAuthorizer(api.AuthzMode(cfg.Authz.Mode))
	if err != nil {
		return err
	}

	handler := api.NewHandler(store, hrSvc, paySvc, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Authorizer:  authorizer,
	})

	scheduler := api.NewPeriodScheduler(paySvc, logger)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.Interval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", server.Addr,
			"db", cfg.Database.Path,
			"authz", cfg.Authz.Mode,
			"currency", cfg.Payroll.Currency)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
