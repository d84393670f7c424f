package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	"github.com/angelmondragon/pantrypal-backend/pkg/types"
)

const (
	envHeader        = "X-PantryPal-Env"
	readinessTimeout = 2 * time.Second
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, types.HealthStatus{Status: "live"})
	}
}

// HealthReady pings every dependency and reports 503 if any is down.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var err error
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if pingErr := dep.Ping(ctx); pingErr != nil {
				checks[name] = "down"
				err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeDependency, pingErr, name+" unavailable"))
				continue
			}
			checks[name] = "up"
		}

		if err != nil {
			for _, depErr := range multierr.Errors(err) {
				if logg != nil {
					logg.Error(r.Context(), "health.ready.failed", depErr)
				}
			}
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}

		responses.WriteSuccess(w, types.HealthStatus{Status: "ready", Checks: checks})
	}
}
