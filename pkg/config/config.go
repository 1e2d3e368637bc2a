package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	Mail         MailConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Admin        AdminConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUXE_APP_ENV" required:"true"`
	Port         string `envconfig:"LUXE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LUXE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUXE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"LUXE_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, part := range strings.Split(a.CORSOrigins, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"LUXE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LUXE_DB_DSN"`
	Driver string `envconfig:"LUXE_DB_DRIVER" default:"postgres"`

	Host       string `envconfig:"LUXE_DB_HOST"`
	Port       int    `envconfig:"LUXE_DB_PORT" default:"5432"`
	User       string `envconfig:"LUXE_DB_USER"`
	Password   string `envconfig:"LUXE_DB_PASSWORD"`
	Name       string `envconfig:"LUXE_DB_NAME"`
	SSLMode    string `envconfig:"LUXE_DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"LUXE_DB_SQLITE_PATH" default:"luxemarket.db"`

	MaxOpenConns    int           `envconfig:"LUXE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LUXE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LUXE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUXE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialect was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LUXE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LUXE_REDIS_ADDR"`
	Password     string        `envconfig:"LUXE_REDIS_PASSWORD"`
	DB           int           `envconfig:"LUXE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LUXE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUXE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUXE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUXE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUXE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LUXE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LUXE_JWT_ISSUER" default:"luxemarket"`
	ExpirationMinutes      int    `envconfig:"LUXE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"LUXE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LUXE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LUXE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LUXE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LUXE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LUXE_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds fixed-window limits; a zero limit disables that counter.
type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LUXE_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"LUXE_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LUXE_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LUXE_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"LUXE_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LUXE_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	OrderWindow        time.Duration `envconfig:"LUXE_RATE_LIMIT_ORDER_WINDOW" default:"1m"`
	OrderUserLimit     int           `envconfig:"LUXE_RATE_LIMIT_ORDER_USER_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LUXE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LUXE_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig tunes the server-side cart and checkout sessions.
type CheckoutConfig struct {
	RedirectDelay  time.Duration `envconfig:"LUXE_CHECKOUT_REDIRECT_DELAY" default:"5s"`
	SessionTTL     time.Duration `envconfig:"LUXE_CHECKOUT_SESSION_TTL" default:"30m"`
	IncludePayment bool          `envconfig:"LUXE_CHECKOUT_INCLUDE_PAYMENT" default:"false"`
	CartTTL        time.Duration `envconfig:"LUXE_CART_TTL" default:"720h"`
}

type MailConfig struct {
	Host         string `envconfig:"LUXE_SMTP_HOST"`
	Port         int    `envconfig:"LUXE_SMTP_PORT" default:"587"`
	Username     string `envconfig:"LUXE_SMTP_USERNAME"`
	Password     string `envconfig:"LUXE_SMTP_PASSWORD"`
	From         string `envconfig:"LUXE_MAIL_FROM" default:"no-reply@luxemarket.local"`
	FromName     string `envconfig:"LUXE_MAIL_FROM_NAME" default:"LuxeMarket"`
	AdminAddress string `envconfig:"LUXE_MAIL_ADMIN_ADDRESS"`
}

// Enabled reports whether an SMTP relay is configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"LUXE_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"LUXE_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"LUXE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int           `envconfig:"LUXE_OUTBOX_RETENTION_DAYS" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"LUXE_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"LUXE_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"LUXE_CRON_LOCK_TTL" default:"55m"`
}

// AdminConfig seeds the first administrator account.
type AdminConfig struct {
	Name     string `envconfig:"LUXE_ADMIN_NAME" default:"Store Admin"`
	Email    string `envconfig:"LUXE_ADMIN_EMAIL"`
	Password string `envconfig:"LUXE_ADMIN_PASSWORD"`
}

type MetricsConfig struct {
	Addr string `envconfig:"LUXE_METRICS_ADDR" default:":9102"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = db.SQLitePath
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
