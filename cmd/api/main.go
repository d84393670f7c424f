package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/pantrypal-backend/api/routes"
	"github.com/angelmondragon/pantrypal-backend/internal/auth"
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/internal/recipes"
	"github.com/angelmondragon/pantrypal-backend/internal/users"
	"github.com/angelmondragon/pantrypal-backend/pkg/auth/session"
	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	"github.com/angelmondragon/pantrypal-backend/pkg/metrics"
	"github.com/angelmondragon/pantrypal-backend/pkg/migrate"
	"github.com/angelmondragon/pantrypal-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}
	pantrySessions, err := session.NewAnonymous(redisClient, cfg.Pantry)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	pantryService, err := pantry.NewService(pantry.ServiceParams{
		Store:      pantry.NewRepository(dbClient.DB()),
		MaxRetries: cfg.Pantry.MaxRetries,
		Metrics:    metrics.NewPantryMetrics(registry),
	})
	if err != nil {
		return err
	}

	var generator recipes.Generator = recipes.UnavailableGenerator()
	if cfg.Recipes.Enabled() {
		upstream, err := recipes.NewGenAIGenerator(ctx, cfg.Recipes.APIKey)
		if err != nil {
			return err
		}
		generator = upstream
	} else {
		logg.Warn(ctx, "recipe api key not configured, suggestions will fail")
	}

	recipeService, err := recipes.NewService(recipes.ServiceParams{
		Generator: generator,
		Cache:     recipes.NewRedisCache(redisClient),
		Config:    cfg.Recipes,
		Metrics:   metrics.NewRecipeMetrics(registry),
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"scope_mode": string(cfg.Pantry.ScopeMode),
		"dialect":    dbClient.Dialect(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			pantrySessions,
			authService,
			registerService,
			pantryService,
			recipeService,
			metrics.NewHTTPMetrics(registry),
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
