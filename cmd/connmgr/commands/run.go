package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/pkg/api"
	"github.com/marmos91/connmgr/pkg/config"
	"github.com/marmos91/connmgr/pkg/registry"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/connmgr/pkg/metrics/prometheus"
)

var strict bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the configured connections and serve the status API",
	Long: `Open every configured connection, run the ensure handlers, then serve
the status API until SIGINT or SIGTERM. On shutdown every connection is
disconnected.

Failed connections are logged and reported but do not stop the process
unless --strict is set.

Examples:
  # Run with the default config location
  connmgr run

  # Run with a custom config and fail on any connection error
  connmgr run --config /etc/connmgr/config.yaml --strict

  # Override the log level from the environment
  CONNMGR_LOGGING_LEVEL=DEBUG connmgr run`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any connection fails to initialize")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownObservability, err := initObservability(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		shutdownObservability(flushCtx)
	}()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	store := registry.NewConnectionStore()
	mgr, err := config.InitializeManager(cfg, store)
	if err != nil {
		return err
	}

	var apiErr chan error
	if cfg.API.IsEnabled() {
		srv := api.NewServer(cfg.API, mgr)
		apiErr = make(chan error, 1)
		go func() { apiErr <- srv.Start(ctx) }()
	} else {
		logger.Info("API server disabled")
	}

	report := mgr.Init(ctx, func(context.Context) error {
		logger.Info("Connections initialized",
			"connections", store.Count(),
			"stores", store.ListStores(),
		)
		return nil
	})
	store.Debug()

	var runErr error
	if err := report.Err(); err != nil {
		if strict {
			runErr = fmt.Errorf("connection initialization failed: %w", err)
			stop()
		} else {
			logger.Warn("Some connections failed to initialize", logger.Err(err))
		}
	}

	if runErr == nil {
		logger.Info("connmgr is running. Press Ctrl+C to stop.")
	}

	apiStopped := false
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, disconnecting")
	case err := <-apiErr:
		apiStopped = true
		if err != nil {
			runErr = err
		}
	}

	// ctx may already be cancelled, so disconnect gets a fresh deadline.
	disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := mgr.Disconnect(disconnectCtx).Err(); err != nil {
		logger.Error("Disconnect finished with errors", logger.Err(err))
	}

	if apiErr != nil && !apiStopped {
		stop()
		if err := <-apiErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	return runErr
}
