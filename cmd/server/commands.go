package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/jobs"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/platform/sqlstore"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configFile string
	envFile    string
}

// loadConfig loads and validates the configuration and builds the process
// logger from it.
func (o *rootOptions) loadConfig(out io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		EnvFile:    o.envFile,
		ConfigFile: o.configFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.SetupWithWriter(cfg.Server, out), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "taskman",
		Short: "Taskman task management API",
		Long: `Taskman serves a JSON API for personal task lists with token
authentication, and provides the maintenance commands that go with it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (default ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newPurgeRevokedCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(cmd.Context())
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	for _, sub := range []struct {
		name  string
		short string
	}{
		{name: sqlstore.MigrateUp, short: "Apply all pending migrations"},
		{name: sqlstore.MigrateDown, short: "Roll back the most recent migration"},
		{name: sqlstore.MigrateStatus, short: "Show which migrations are applied"},
	} {
		command := sub.name
		migrate.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, opts, command)
			},
		})
	}
	return migrate
}

func runMigrate(cmd *cobra.Command, opts *rootOptions, command string) error {
	cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "memory" {
		return fmt.Errorf("database driver %q has no schema to migrate", cfg.Database.Driver)
	}

	db, dialect, err := sqlstore.Open(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", slog.String("error", err.Error()))
		}
	}()

	statuses, err := sqlstore.Migrate(cmd.Context(), db, dialect, command, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%-8s %d %s\n", state, s.Version, s.Source)
	}
	return nil
}

func newPurgeRevokedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-revoked",
		Short: "Delete revoked tokens whose expiry has passed",
		Long: `purge-revoked runs the scheduled revocation purge once, for
deployments that schedule it outside the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cfg.Revocation.Backend == "memory" {
				return fmt.Errorf("revocation backend %q does not outlive the server", cfg.Revocation.Backend)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.cleanup()

			job := jobs.NewPurgeRevokedJob(app.revocationStore, nil)
			return job.Run(logger.WithLogger(ctx, log))
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password PASSWORD...",
		Short: "Print bcrypt hashes for seeding users",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher := auth.NewBcrypt(cost)
			out := cmd.OutOrStdout()
			for _, password := range args {
				hash, err := hasher.Hash(password)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strings.TrimSpace(hash))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", auth.DefaultBcryptCost, "bcrypt work factor")
	return cmd
}
