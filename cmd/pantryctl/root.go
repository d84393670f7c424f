package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/internal/recipes"
	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

// environment is what every subcommand operates on.
type environment struct {
	pantry  pantry.Service
	recipes recipes.Service
	close   func() error
}

type environmentOpener func(ctx context.Context) (*environment, error)

type rootOptions struct {
	scope      string
	jsonOutput bool
}

func newRootCmd(open environmentOpener) *cobra.Command {
	opts := &rootOptions{}
	var env *environment

	root := &cobra.Command{
		Use:   "pantryctl",
		Short: "Inspect and edit pantries",
		Long: `pantryctl runs pantry operations directly against the configured database.

The --scope flag names the pantry collection:
  global               the shared pantry
  session:<token>      an anonymous session pantry
  user:<uuid>          a signed-in user's pantry`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opened, err := open(cmd.Context())
			if err != nil {
				return err
			}
			env = opened
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if env == nil || env.close == nil {
				return nil
			}
			return env.close()
		},
	}
	root.PersistentFlags().StringVar(&opts.scope, "scope", "global", "pantry collection to operate on")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print items as JSON")

	current := func() *environment { return env }
	root.AddCommand(
		newListCmd(opts, current),
		newAddCmd(opts, current),
		newRemoveCmd(opts, current),
		newEditCmd(opts, current),
		newDeleteCmd(opts, current),
		newRecipeCmd(opts, current),
	)
	return root
}

func (o *rootOptions) resolveScope() (pantry.Scope, error) {
	scope, err := pantry.ParseScope(o.scope)
	if err != nil {
		return pantry.Scope{}, fmt.Errorf("--scope: %w", err)
	}
	return scope, nil
}

// openEnvironment builds services from PANTRYPAL_ configuration.
func openEnvironment(ctx context.Context) (*environment, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "pantryctl",
		Level:       cfg.App.LogLevel,
	})

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return nil, err
	}

	pantrySvc, err := pantry.NewService(pantry.ServiceParams{
		Store:      pantry.NewRepository(client.DB()),
		MaxRetries: cfg.Pantry.MaxRetries,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	var generator recipes.Generator = recipes.UnavailableGenerator()
	if cfg.Recipes.Enabled() {
		upstream, err := recipes.NewGenAIGenerator(ctx, cfg.Recipes.APIKey)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		generator = upstream
	}
	recipeSvc, err := recipes.NewService(recipes.ServiceParams{
		Generator: generator,
		Config:    cfg.Recipes,
		Logger:    logg,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &environment{pantry: pantrySvc, recipes: recipeSvc, close: client.Close}, nil
}
