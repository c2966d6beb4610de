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
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Exchange     ExchangeConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
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
	Env          string `envconfig:"INDYHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"INDYHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INDYHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INDYHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"INDYHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"INDYHUB_DB_DSN"`
	Driver string `envconfig:"INDYHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INDYHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"INDYHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INDYHUB_DB_USER"`
	LegacyPassword string `envconfig:"INDYHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"INDYHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"INDYHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INDYHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INDYHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INDYHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INDYHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INDYHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INDYHUB_REDIS_ADDR"`
	Password     string        `envconfig:"INDYHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"INDYHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INDYHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INDYHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INDYHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INDYHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INDYHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies host-platform issued bearer tokens. The service never
// mints tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"INDYHUB_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"INDYHUB_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INDYHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INDYHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"INDYHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"INDYHUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"INDYHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"INDYHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ExchangeTopic            string `envconfig:"INDYHUB_PUBSUB_EXCHANGE_TOPIC" required:"true"`
	ExchangeSubscription     string `envconfig:"INDYHUB_PUBSUB_EXCHANGE_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"INDYHUB_PUBSUB_NOTIFICATION_TOPIC" default:"indyhub-notification-events"`
	NotificationSubscription string `envconfig:"INDYHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"INDYHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"INDYHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"INDYHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig tunes the scheduled maintenance worker. Retention values are in
// days; zero falls back to the job defaults.
type CronConfig struct {
	Interval                  time.Duration `envconfig:"INDYHUB_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays       int           `envconfig:"INDYHUB_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationRetentionDays int           `envconfig:"INDYHUB_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
}

// RateLimitConfig throttles authenticated write traffic per user.
type RateLimitConfig struct {
	WriteWindow time.Duration `envconfig:"INDYHUB_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteLimit  int           `envconfig:"INDYHUB_RATE_LIMIT_WRITE_LIMIT" default:"60"`
}

// ExchangeConfig carries service-wide exchange tuning. Per-corporation
// policy lives in the material_exchange_configs table, not here.
type ExchangeConfig struct {
	StockAlertThreshold int64 `envconfig:"INDYHUB_EXCHANGE_STOCK_ALERT_THRESHOLD" default:"0"`
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
