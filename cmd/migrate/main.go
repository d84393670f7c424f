package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	"github.com/angelmondragon/pantrypal-backend/pkg/migrate"
)

const serviceName = "migrate"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Apply and author pantry schema migrations",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", migrate.DefaultDir, "on-disk migrations directory used by create and validate")

	for _, command := range []string{"up", "down", "status", "redo"} {
		root.AddCommand(&cobra.Command{
			Use:   command,
			Short: "goose " + command + " against the configured database",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDatabase(cmd.Context(), command, func(ctx context.Context, sqlDB *sql.DB, dialect string) error {
					return migrate.Run(ctx, sqlDB, dialect, command)
				})
			},
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "version <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to an exact version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), "version", func(ctx context.Context, sqlDB *sql.DB, dialect string) error {
				return migrate.MigrateToVersion(ctx, sqlDB, dialect, args[0])
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Write an empty timestamped SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(dir, args[0])
			if err != nil {
				return fmt.Errorf("create migration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration filenames and goose annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migrate.ValidateDir(dir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	})

	return root
}

// withDatabase loads config, opens the database and hands fn the pooled handle.
func withDatabase(ctx context.Context, command string, fn func(context.Context, *sql.DB, string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		return err
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return errors.Join(err, client.Close())
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"cmd":     command,
		"dialect": client.Dialect(),
	})
	logg.Info(ctx, "migrate ready")

	if err := fn(ctx, sqlDB, client.Dialect()); err != nil {
		logg.Error(ctx, "goose "+command+" failed", err)
		return errors.Join(err, client.Close())
	}
	return client.Close()
}
