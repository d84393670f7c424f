package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	"go.uber.org/multierr"
)

const sessionPantrySweepJobName = "session-pantry-sweep"

type sessionCollectionRepo interface {
	SessionCollections(ctx context.Context) ([]string, error)
	DeleteCollection(ctx context.Context, collection string) (int64, error)
}

type sessionLiveness interface {
	Alive(ctx context.Context, token string) (bool, error)
}

type purgeRecorder interface {
	AddPurged(job string, n int64)
}

type SessionPantrySweepJobParams struct {
	Logger     *logger.Logger
	Repository sessionCollectionRepo
	Sessions   sessionLiveness
	Metrics    purgeRecorder
}

// NewSessionPantrySweepJob builds the job that deletes pantries whose
// anonymous session token has expired. Nothing can reach those documents again.
func NewSessionPantrySweepJob(params SessionPantrySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("pantry repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session tracker required")
	}
	return &sessionPantrySweepJob{
		logg:     params.Logger,
		repo:     params.Repository,
		sessions: params.Sessions,
		metrics:  params.Metrics,
	}, nil
}

type sessionPantrySweepJob struct {
	logg     *logger.Logger
	repo     sessionCollectionRepo
	sessions sessionLiveness
	metrics  purgeRecorder
}

func (j *sessionPantrySweepJob) Name() string { return sessionPantrySweepJobName }

func (j *sessionPantrySweepJob) Run(ctx context.Context) error {
	collections, err := j.repo.SessionCollections(ctx)
	if err != nil {
		return fmt.Errorf("list session pantries: %w", err)
	}

	var (
		errs     error
		purged   int
		rowsGone int64
	)
	for _, collection := range collections {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		scope, err := pantry.ParseScope(collection)
		if err != nil || scope.Kind != pantry.KindSession {
			continue
		}
		alive, err := j.sessions.Alive(ctx, scope.Key)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("check session: %w", err))
			continue
		}
		if alive {
			continue
		}
		rows, err := j.repo.DeleteCollection(ctx, collection)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete session pantry: %w", err))
			continue
		}
		purged++
		rowsGone += rows
	}

	if j.metrics != nil {
		j.metrics.AddPurged(sessionPantrySweepJobName, rowsGone)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"collections_checked": len(collections),
		"collections_purged":  purged,
		"rows_deleted":        rowsGone,
	})
	j.logg.Info(logCtx, "session pantry sweep complete")
	return errs
}
