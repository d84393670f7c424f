package recipes

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
)

const (
	defaultMaxTokens = 200
	defaultTimeout   = 30 * time.Second
)

// Service suggests a recipe for a set of pantry item names.
type Service interface {
	Suggest(ctx context.Context, items []string) (string, error)
}

// Recorder captures recipe outcomes. *metrics.RecipeMetrics satisfies it.
type Recorder interface {
	ObserveGeneration(elapsed time.Duration)
	Inc(result string)
}

type ServiceParams struct {
	Generator Generator
	Cache     Cache
	Config    config.RecipesConfig
	Metrics   Recorder
	Logger    *logger.Logger
}

type service struct {
	generator Generator
	cache     Cache
	cfg       config.RecipesConfig
	metrics   Recorder
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Generator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe generator is required")
	}
	cfg := params.Config
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		generator: params.Generator,
		cache:     params.Cache,
		cfg:       cfg,
		metrics:   recorder,
		logg:      logg,
	}, nil
}

func (s *service) Suggest(ctx context.Context, items []string) (string, error) {
	normalized := normalizeItems(items)
	if len(normalized) == 0 {
		s.metrics.Inc("invalid")
		return "", pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	digest := Digest(normalized)
	if recipe, ok := s.cached(ctx, digest); ok {
		s.metrics.Inc("cached")
		return recipe, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := s.generator.Generate(callCtx, Request{
		Model:     s.cfg.Model,
		System:    systemPrompt,
		Prompt:    BuildPrompt(normalized),
		MaxTokens: s.cfg.MaxTokens,
	})
	s.metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		s.metrics.Inc("failed")
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recipe generation failed")
	}

	recipe := strings.TrimSpace(out)
	if recipe == "" {
		s.metrics.Inc("failed")
		return "", pkgerrors.New(pkgerrors.CodeDependency, "recipe generation returned no content")
	}

	s.metrics.Inc("generated")
	s.store(ctx, digest, recipe)
	return recipe, nil
}

func (s *service) cached(ctx context.Context, digest string) (string, bool) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return "", false
	}
	recipe, ok, err := s.cache.Get(ctx, digest)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "recipe cache read failed")
		return "", false
	}
	return recipe, ok
}

func (s *service) store(ctx context.Context, digest, recipe string) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, digest, recipe, s.cfg.CacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "recipe cache write failed")
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(time.Duration) {}
func (nopRecorder) Inc(string) {}
