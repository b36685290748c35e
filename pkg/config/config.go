package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FASHIONMART"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "FASHIONMART_APP_ENV"
	EnvPort      = "FASHIONMART_APP_PORT"
	EnvDBDSN     = "FASHIONMART_DB_DSN"
	EnvDBHost    = "FASHIONMART_DB_HOST"
	EnvDBUser    = "FASHIONMART_DB_USER"
	EnvDBName    = "FASHIONMART_DB_NAME"
	EnvRedisURL  = "FASHIONMART_REDIS_URL"
	EnvJWTSecret = "FASHIONMART_JWT_SECRET"
	EnvJWTIssuer = "FASHIONMART_JWT_ISSUER"
	EnvJWTExpMin = "FASHIONMART_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	SMTP         SMTPConfig
	Returns      ReturnsConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FASHIONMART_APP_ENV" required:"true"`
	Port         string `envconfig:"FASHIONMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FASHIONMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FASHIONMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FASHIONMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FASHIONMART_DB_DSN"`
	Driver string `envconfig:"FASHIONMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FASHIONMART_DB_HOST"`
	LegacyPort     int    `envconfig:"FASHIONMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FASHIONMART_DB_USER"`
	LegacyPassword string `envconfig:"FASHIONMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"FASHIONMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"FASHIONMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FASHIONMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FASHIONMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FASHIONMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FASHIONMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FASHIONMART_REDIS_URL" required:"true"`
	Password     string        `envconfig:"FASHIONMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"FASHIONMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FASHIONMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FASHIONMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FASHIONMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FASHIONMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FASHIONMART_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"FASHIONMART_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FASHIONMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FASHIONMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FASHIONMART_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FASHIONMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FASHIONMART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FASHIONMART_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FASHIONMART_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"FASHIONMART_PUBSUB_ORDER_EVENTS_TOPIC" default:"fm-order-events"`
	OrderEventsSubscription string `envconfig:"FASHIONMART_PUBSUB_ORDER_EVENTS_SUBSCRIPTION"`
}

type StripeConfig struct {
	APIKey string `envconfig:"FASHIONMART_STRIPE_API_KEY"`
	Env    string `envconfig:"FASHIONMART_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SMTPConfig struct {
	Host        string `envconfig:"FASHIONMART_SMTP_HOST"`
	Port        int    `envconfig:"FASHIONMART_SMTP_PORT" default:"587"`
	Username    string `envconfig:"FASHIONMART_SMTP_USERNAME"`
	Password    string `envconfig:"FASHIONMART_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"FASHIONMART_SMTP_FROM_EMAIL" default:"no-reply@fashionmart.io"`
}

type ReturnsConfig struct {
	WindowDays int `envconfig:"FASHIONMART_RETURN_WINDOW_DAYS" default:"7"`
}

// Window returns the return eligibility window measured from delivery.
func (r ReturnsConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FASHIONMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FASHIONMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FASHIONMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
