package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/pantrypal-backend/api/controllers"
	"github.com/angelmondragon/pantrypal-backend/api/middleware"
	"github.com/angelmondragon/pantrypal-backend/internal/auth"
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/internal/recipes"
	"github.com/angelmondragon/pantrypal-backend/pkg/auth/session"
	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/pantrypal-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// redisStore is the slice of the redis client the HTTP layer needs.
type redisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store redisStore,
	sessionManager sessionManager,
	pantrySessions middleware.SessionResolver,
	authService auth.Service,
	registerService auth.RegisterService,
	pantryService pantry.Service,
	recipeService recipes.Service,
	httpMetrics middleware.HTTPObserver,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.NewRateLimitPolicy("login", limits.LoginWindow,
		middleware.RateLimitRule{By: middleware.LimitByIP, Limit: limits.LoginIPLimit},
		middleware.RateLimitRule{By: middleware.LimitByEmail, Limit: limits.LoginEmailLimit},
	)
	registerPolicy := middleware.NewRateLimitPolicy("register", limits.RegisterWindow,
		middleware.RateLimitRule{By: middleware.LimitByIP, Limit: limits.RegisterIPLimit},
		middleware.RateLimitRule{By: middleware.LimitByEmail, Limit: limits.RegisterEmailLimit},
	)
	recipePolicy := middleware.NewRateLimitPolicy("recipe", limits.RecipeWindow,
		middleware.RateLimitRule{By: middleware.LimitByIP, Limit: limits.RecipeIPLimit},
		middleware.RateLimitRule{By: middleware.LimitByPantry, Limit: limits.RecipePantryLimit},
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if store != nil {
		readiness["redis"] = store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.With(middleware.RateLimit(recipePolicy, store, logg)).
		Post("/api/recipe-suggestions", controllers.RecipeSuggestions(recipeService, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.RateLimit(registerPolicy, store, logg),
			middleware.Idempotency(middleware.IdempotencyOptions{Required: true}, store, logg),
		).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
		r.With(middleware.Auth(cfg.JWT, sessionManager, logg)).Get("/me", controllers.AuthMe(authService, logg))
	})

	r.Route("/api/v1/pantry", func(r chi.Router) {
		if cfg.Pantry.ScopeMode == config.ScopeModeIdentity {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		}
		r.Use(middleware.PantryScope(middleware.ScopeOptions{
			Mode:         cfg.Pantry.ScopeMode,
			Sessions:     pantrySessions,
			CookieName:   cfg.Pantry.SessionCookie,
			SecureCookie: cfg.App.IsProd(),
		}, logg))

		r.Get("/items", controllers.PantryList(pantryService, logg))
		r.With(middleware.Idempotency(middleware.IdempotencyOptions{TTL: time.Hour}, store, logg)).Post("/items", controllers.PantryAdd(pantryService, logg))
		r.Post("/items/{itemID}/decrement", controllers.PantryDecrement(pantryService, logg))
		r.Put("/items/{itemID}", controllers.PantryEdit(pantryService, logg))
		r.Delete("/items/{itemID}", controllers.PantryDelete(pantryService, logg))
		r.With(middleware.RateLimit(recipePolicy, store, logg)).Post("/recipes", controllers.PantryRecipe(pantryService, recipeService, logg))
	})

	return r
}
