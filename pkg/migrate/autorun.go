package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

// MaybeRunDev applies migrations on boot when running in dev with the
// auto-migrate flag, or whenever the sqlite backend is selected.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	auto := cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
	if !auto && !cfg.FeatureFlags.UseSQLite {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Up(ctx, client); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
