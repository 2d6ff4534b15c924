package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App            AppConfig
	Service        ServiceConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Password       PasswordConfig
	CompanyContext CompanyContextConfig
	Outbox         OutboxConfig
	CORS           CORSConfig
	AuthRateLimit  AuthRateLimitConfig
	Idempotency    IdempotencyConfig
	FeatureFlags   FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	if !c.FeatureFlags.UseSQLite {
		err = multierr.Append(err, c.DB.ensureDSN())
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		err = multierr.Append(err, fmt.Errorf("%s must not be blank", EnvJWTSecret))
	}
	if c.JWT.ExpirationMinutes <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvJWTExpMins))
	}
	if c.CompanyContext.SelectionTTL < 0 {
		err = multierr.Append(err, errors.New("company selection ttl must not be negative"))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"STOCKHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKHUB_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOCKHUB_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOCKHUB_LOG_WARN_STACK" default:"false"`
	// CollationLocale is the BCP 47 tag used to order company names.
	CollationLocale string `envconfig:"STOCKHUB_COLLATION_LOCALE" default:"pt-BR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKHUB_DB_DSN"`
	Driver string `envconfig:"STOCKHUB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOCKHUB_DB_HOST"`
	Port     int    `envconfig:"STOCKHUB_DB_PORT" default:"5432"`
	User     string `envconfig:"STOCKHUB_DB_USER"`
	Password string `envconfig:"STOCKHUB_DB_PASSWORD"`
	Name     string `envconfig:"STOCKHUB_DB_NAME"`
	SSLMode  string `envconfig:"STOCKHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOCKHUB_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKHUB_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STOCKHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STOCKHUB_JWT_ISSUER" default:"stockhub"`
	ExpirationMinutes      int    `envconfig:"STOCKHUB_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"STOCKHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOCKHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOCKHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOCKHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOCKHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOCKHUB_ARGON_KEY_LEN" default:"32"`
}

// CompanyContextConfig controls how the selected company is persisted per user.
type CompanyContextConfig struct {
	SelectionTTL time.Duration `envconfig:"STOCKHUB_COMPANY_SELECTION_TTL" default:"720h"`
	KeyPrefix    string        `envconfig:"STOCKHUB_COMPANY_SELECTION_PREFIX" default:"company_ctx"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"STOCKHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"STOCKHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"STOCKHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Channel        string `envconfig:"STOCKHUB_OUTBOX_CHANNEL" default:"stockhub.events"`
	// MetricsAddr serves /metrics for the publisher; empty disables it.
	MetricsAddr string `envconfig:"STOCKHUB_OUTBOX_METRICS_ADDR" default:":9102"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOCKHUB_CORS_ALLOWED_ORIGINS" default:"*"`
}

// AuthRateLimitConfig bounds login and register attempts per client IP and email.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOCKHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"STOCKHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"STOCKHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"STOCKHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"STOCKHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"STOCKHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"STOCKHUB_IDEMPOTENCY_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKHUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
