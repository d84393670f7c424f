package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/pantrypal-backend/internal/cron"
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/pkg/auth/session"
	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/instance"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	"github.com/angelmondragon/pantrypal-backend/pkg/metrics"
	"github.com/angelmondragon/pantrypal-backend/pkg/migrate"
	"github.com/angelmondragon/pantrypal-backend/pkg/redis"
)

const (
	serviceName   = "cron-worker"
	lockKeyFormat = "pp:cron-worker:lock:%s"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"scope_mode": string(cfg.Pantry.ScopeMode),
		"worker_id":  instance.ID(),
	})

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessions, err := session.NewAnonymous(redisClient, cfg.Pantry)
	if err != nil {
		return fmt.Errorf("session tracker: %w", err)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	sweep, err := cron.NewSessionPantrySweepJob(cron.SessionPantrySweepJobParams{
		Logger:     logg,
		Repository: pantry.NewRepository(dbClient.DB()),
		Sessions:   sessions,
		Metrics:    jobMetrics,
	})
	if err != nil {
		return fmt.Errorf("sweep job: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Pantry.SweepInterval)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}
	lock.WithHolder(instance.ID())

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Pantry.SweepInterval,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	if once {
		return service.RunOnce(ctx)
	}
	logg.Info(logg.WithField(ctx, "interval", service.Interval().String()), "starting cron worker")
	return service.Run(ctx)
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
