// Package main implements the entry point for the docgen API server and
// worker. The same binary serves the HTTP API, runs the lease poller that
// executes queued generation tasks, or both, and applies database migrations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/docgen-api/internal/config"
	"github.com/phrazzld/docgen-api/internal/platform/logger"
	"github.com/phrazzld/docgen-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// processMode selects which long-running parts a command starts
type processMode struct {
	api    bool
	worker bool
}

var (
	modeServe  = processMode{api: true, worker: true}
	modeAPI    = processMode{api: true}
	modeWorker = processMode{worker: true}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "docgen-api",
		Short:         "Asynchronous document generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default ./config.yaml if present)")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.LoadFrom(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newRunCommand("serve", "Run the HTTP API and the task worker", modeServe, loadConfig),
		newRunCommand("api", "Run only the HTTP API", modeAPI, loadConfig),
		newRunCommand("worker", "Run only the task worker", modeWorker, loadConfig),
		newMigrateCommand(loadConfig),
	)
	return root
}

func newRunCommand(
	use, short string,
	mode processMode,
	loadConfig func() (*config.Config, error),
) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}
			log.Info("configuration loaded",
				"command", use,
				"port", cfg.Server.Port,
				"log_level", cfg.Server.LogLevel,
				"poll_interval", cfg.Worker.PollInterval,
				"lease_ttl", cfg.Worker.LeaseTTL)

			app, err := connectApplication(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if migrateFirst {
				if err := postgres.Migrate(cmd.Context(), app.db, postgres.MigrateUp, log); err != nil {
					return fmt.Errorf("failed to apply migrations: %w", err)
				}
			}

			return app.run(cmd.Context(), mode)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending database migrations before starting")
	return cmd
}

func newMigrateCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset]",
		Short:     "Manage the database schema",
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateReset},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := logger.Setup(cfg.Server)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			db, err := postgres.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := db.Close(); cerr != nil {
					log.Error("failed to close database connection", "error", cerr)
				}
			}()

			if err := waitForDependency(cmd.Context(), "postgres", defaultRetry, log,
				func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			); err != nil {
				return err
			}

			log.Info("running migrations", "command", args[0])
			return postgres.Migrate(cmd.Context(), db, args[0], log)
		},
	}
}
