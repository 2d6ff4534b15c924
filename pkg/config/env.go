package config

const (
	EnvPrefix = "STOCKHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "STOCKHUB_APP_ENV"
	EnvPort   = "STOCKHUB_APP_PORT"

	EnvDBDSN  = "STOCKHUB_DB_DSN"
	EnvDBHost = "STOCKHUB_DB_HOST"
	EnvDBUser = "STOCKHUB_DB_USER"
	EnvDBName = "STOCKHUB_DB_NAME"

	EnvRedisURL = "STOCKHUB_REDIS_URL"

	EnvJWTSecret              = "STOCKHUB_JWT_SECRET"
	EnvJWTIssuer              = "STOCKHUB_JWT_ISSUER"
	EnvJWTExpMins             = "STOCKHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOCKHUB_REFRESH_TOKEN_TTL_MINUTES"

	EnvUseSQLite           = "STOCKHUB_USE_SQLITE"
	EnvCompanySelectionTTL = "STOCKHUB_COMPANY_SELECTION_TTL"
	EnvCORSAllowedOrigins  = "STOCKHUB_CORS_ALLOWED_ORIGINS"
	EnvOutboxChannel       = "STOCKHUB_OUTBOX_CHANNEL"
	EnvCollationLocale     = "STOCKHUB_COLLATION_LOCALE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
