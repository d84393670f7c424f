package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

const defaultInterval = time.Hour

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Recorder observes finished job runs. *metrics.JobMetrics satisfies it.
type Recorder interface {
	ObserveRun(job, outcome string, elapsed time.Duration)
}

// ServiceParams configure the maintenance loop.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  Recorder
	Interval time.Duration
}

// Service runs the registered jobs on a fixed cadence, one instance at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  Recorder
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}
	svc := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Interval reports the cadence between cycles.
func (s *Service) Interval() time.Duration {
	return s.interval
}

// Run sweeps once right away and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for cycle := 1; ; cycle++ {
		if err := s.RunOnce(s.logg.WithField(ctx, "cycle", cycle)); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "scheduled run failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce takes the lock and runs every registered job in order. A held lock
// means another worker owns this cycle, which is not an error.
func (s *Service) RunOnce(ctx context.Context) error {
	acquired, err := s.lock.Acquire(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("lock acquire: %w", err)
	case !acquired:
		s.logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		return nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	for _, job := range s.registry.Jobs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())

	outcome := outcomeOK
	if err != nil {
		outcome = outcomeFailed
		s.logg.Error(ctx, "job failed", err)
	} else {
		s.logg.Info(ctx, "job completed")
	}
	if s.metrics != nil {
		s.metrics.ObserveRun(job.Name(), outcome, elapsed)
	}
}
