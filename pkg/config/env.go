package config

// EnvPrefix is left empty; every field names its full variable through the envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "PANTRYPAL_APP_ENV"
	EnvPort                   = "PANTRYPAL_APP_PORT"
	EnvDBDSN                  = "PANTRYPAL_DB_DSN"
	EnvDBHost                 = "PANTRYPAL_DB_HOST"
	EnvDBUser                 = "PANTRYPAL_DB_USER"
	EnvDBName                 = "PANTRYPAL_DB_NAME"
	EnvRedisURL               = "PANTRYPAL_REDIS_URL"
	EnvJWTSecret              = "PANTRYPAL_JWT_SECRET"
	EnvJWTIssuer              = "PANTRYPAL_JWT_ISSUER"
	EnvJWTExpMins             = "PANTRYPAL_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PANTRYPAL_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "PANTRYPAL_USE_SQLITE"
	EnvPantryScopeMode        = "PANTRYPAL_PANTRY_SCOPE_MODE"
	EnvPantryMaxRetries       = "PANTRYPAL_PANTRY_MAX_RETRIES"
	EnvRecipesAPIKey          = "PANTRYPAL_RECIPES_API_KEY"
	EnvCORSAllowedOrigins     = "PANTRYPAL_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
