package config

const EnvPrefix = "LUXE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "LUXE_APP_ENV"
	EnvPort      = "LUXE_APP_PORT"
	EnvDBDSN     = "LUXE_DB_DSN"
	EnvDBHost    = "LUXE_DB_HOST"
	EnvDBUser    = "LUXE_DB_USER"
	EnvDBName    = "LUXE_DB_NAME"
	EnvUseSQLite = "LUXE_USE_SQLITE"
	EnvRedisURL  = "LUXE_REDIS_URL"
	EnvJWTSecret = "LUXE_JWT_SECRET"
	EnvJWTIssuer = "LUXE_JWT_ISSUER"
	EnvJWTExp    = "LUXE_JWT_EXPIRATION_MINUTES"

	EnvCheckoutRedirectDelay  = "LUXE_CHECKOUT_REDIRECT_DELAY"
	EnvCheckoutIncludePayment = "LUXE_CHECKOUT_INCLUDE_PAYMENT"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
