package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pantry        PantryConfig
	Recipes       RecipesConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if !cfg.Pantry.ScopeMode.IsValid() {
		return nil, fmt.Errorf("invalid %s %q (expected global, session or identity)", EnvPantryScopeMode, cfg.Pantry.ScopeMode)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PANTRYPAL_APP_ENV" required:"true"`
	Port         string `envconfig:"PANTRYPAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PANTRYPAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PANTRYPAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PANTRYPAL_DB_DSN"`

	LegacyHost     string `envconfig:"PANTRYPAL_DB_HOST"`
	LegacyPort     int    `envconfig:"PANTRYPAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PANTRYPAL_DB_USER"`
	LegacyPassword string `envconfig:"PANTRYPAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"PANTRYPAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"PANTRYPAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PANTRYPAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PANTRYPAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PANTRYPAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PANTRYPAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PANTRYPAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PANTRYPAL_REDIS_ADDR"`
	Password     string        `envconfig:"PANTRYPAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PANTRYPAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PANTRYPAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PANTRYPAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PANTRYPAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PANTRYPAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PANTRYPAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PANTRYPAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PANTRYPAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PANTRYPAL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PANTRYPAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PANTRYPAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PANTRYPAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PANTRYPAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PANTRYPAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PANTRYPAL_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds fixed-window limits. A zero limit disables that dimension.
type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PANTRYPAL_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PANTRYPAL_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PANTRYPAL_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PANTRYPAL_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PANTRYPAL_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PANTRYPAL_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	RecipeWindow       time.Duration `envconfig:"PANTRYPAL_RATE_LIMIT_RECIPE_WINDOW" default:"1m"`
	RecipeIPLimit      int           `envconfig:"PANTRYPAL_RATE_LIMIT_RECIPE_IP_LIMIT" default:"10"`
	RecipePantryLimit  int           `envconfig:"PANTRYPAL_RATE_LIMIT_RECIPE_PANTRY_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"PANTRYPAL_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"PANTRYPAL_SQLITE_PATH" default:"pantrypal.db"`
	AutoMigrate bool   `envconfig:"PANTRYPAL_AUTO_MIGRATE" default:"false"`
}

// ScopeMode selects how pantry collections are partitioned between clients.
type ScopeMode string

const (
	ScopeModeGlobal   ScopeMode = "global"
	ScopeModeSession  ScopeMode = "session"
	ScopeModeIdentity ScopeMode = "identity"
)

func (m ScopeMode) IsValid() bool {
	switch m {
	case ScopeModeGlobal, ScopeModeSession, ScopeModeIdentity:
		return true
	}
	return false
}

type PantryConfig struct {
	ScopeMode     ScopeMode     `envconfig:"PANTRYPAL_PANTRY_SCOPE_MODE" default:"identity"`
	MaxRetries    int           `envconfig:"PANTRYPAL_PANTRY_MAX_RETRIES" default:"5"`
	SessionTTL    time.Duration `envconfig:"PANTRYPAL_PANTRY_SESSION_TTL" default:"24h"`
	SessionCookie string        `envconfig:"PANTRYPAL_PANTRY_SESSION_COOKIE" default:"pantry_session"`
	SweepInterval time.Duration `envconfig:"PANTRYPAL_PANTRY_SWEEP_INTERVAL" default:"1h"`
}

type RecipesConfig struct {
	APIKey    string        `envconfig:"PANTRYPAL_RECIPES_API_KEY"`
	Model     string        `envconfig:"PANTRYPAL_RECIPES_MODEL" default:"gemini-2.0-flash"`
	MaxTokens int           `envconfig:"PANTRYPAL_RECIPES_MAX_TOKENS" default:"200"`
	Timeout   time.Duration `envconfig:"PANTRYPAL_RECIPES_TIMEOUT" default:"30s"`
	CacheTTL  time.Duration `envconfig:"PANTRYPAL_RECIPES_CACHE_TTL" default:"0s"`
}

// Enabled reports whether an upstream generator can be constructed.
func (r RecipesConfig) Enabled() bool {
	return strings.TrimSpace(r.APIKey) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PANTRYPAL_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
