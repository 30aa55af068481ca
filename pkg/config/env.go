package config

const (
	EnvPrefix = "PROSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "PROSTORE_APP_ENV"
	EnvPort                   = "PROSTORE_APP_PORT"
	EnvDBDSN                  = "PROSTORE_DB_DSN"
	EnvDBHost                 = "PROSTORE_DB_HOST"
	EnvDBUser                 = "PROSTORE_DB_USER"
	EnvDBName                 = "PROSTORE_DB_NAME"
	EnvDBPassword             = "PROSTORE_DB_PASSWORD"
	EnvRedisURL               = "PROSTORE_REDIS_URL"
	EnvJWTSecret              = "PROSTORE_JWT_SECRET"
	EnvJWTIssuer              = "PROSTORE_JWT_ISSUER"
	EnvJWTExpMins             = "PROSTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PROSTORE_REFRESH_TOKEN_TTL_MINUTES"
	EnvPaymentMethods         = "PROSTORE_PAYMENT_METHODS"
	EnvPageSize               = "PROSTORE_PAGE_SIZE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
