package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Commerce CommerceConfig
	Webhook  WebhookConfig
	Coupon   CouponConfig
	Sweep    SweepConfig
	API      APIConfig
	Restore  RestoreConfig
	Eventing EventingConfig
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
	Env          string `envconfig:"LEADCOLLECT_APP_ENV" required:"true"`
	Port         string `envconfig:"LEADCOLLECT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEADCOLLECT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEADCOLLECT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"LEADCOLLECT_DB_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEADCOLLECT_DB_DSN"`
	Driver string `envconfig:"LEADCOLLECT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEADCOLLECT_DB_HOST"`
	LegacyPort     int    `envconfig:"LEADCOLLECT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEADCOLLECT_DB_USER"`
	LegacyPassword string `envconfig:"LEADCOLLECT_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEADCOLLECT_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEADCOLLECT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEADCOLLECT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEADCOLLECT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEADCOLLECT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEADCOLLECT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEADCOLLECT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEADCOLLECT_REDIS_ADDR"`
	Password     string        `envconfig:"LEADCOLLECT_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEADCOLLECT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEADCOLLECT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEADCOLLECT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEADCOLLECT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEADCOLLECT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEADCOLLECT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CommerceConfig points at the host commerce engine's Admin API.
type CommerceConfig struct {
	BaseURL        string        `envconfig:"LEADCOLLECT_COMMERCE_BASE_URL" required:"true"`
	AccessKey      string        `envconfig:"LEADCOLLECT_COMMERCE_ACCESS_KEY" required:"true"`
	RequestTimeout time.Duration `envconfig:"LEADCOLLECT_COMMERCE_REQUEST_TIMEOUT" default:"10s"`
	MaxRetryWait   time.Duration `envconfig:"LEADCOLLECT_COMMERCE_MAX_RETRY_WAIT" default:"5s"`
}

// WebhookConfig holds the global LeadCollect webhook defaults. Per-channel
// overrides live in channel_settings and win over these values.
type WebhookConfig struct {
	URL            string        `envconfig:"LEADCOLLECT_WEBHOOK_URL"`
	Secret         string        `envconfig:"LEADCOLLECT_WEBHOOK_SECRET"`
	Enabled        bool          `envconfig:"LEADCOLLECT_WEBHOOK_ENABLED" default:"false"`
	BaseDelay      time.Duration `envconfig:"LEADCOLLECT_WEBHOOK_BASE_DELAY" default:"1s"`
	RequestTimeout time.Duration `envconfig:"LEADCOLLECT_WEBHOOK_REQUEST_TIMEOUT" default:"10s"`
	ConnectTimeout time.Duration `envconfig:"LEADCOLLECT_WEBHOOK_CONNECT_TIMEOUT" default:"5s"`
}

type CouponConfig struct {
	Type      string  `envconfig:"LEADCOLLECT_COUPON_TYPE" default:"percentage"`
	Value     float64 `envconfig:"LEADCOLLECT_COUPON_VALUE" default:"10"`
	ValidDays int     `envconfig:"LEADCOLLECT_COUPON_VALID_DAYS" default:"30"`
	MinOrder  float64 `envconfig:"LEADCOLLECT_COUPON_MIN_ORDER" default:"0"`
}

type SweepConfig struct {
	Interval   time.Duration `envconfig:"LEADCOLLECT_SWEEP_INTERVAL" default:"15m"`
	MinIdleAge time.Duration `envconfig:"LEADCOLLECT_SWEEP_MIN_IDLE_AGE" default:"1h"`
	BatchSize  int           `envconfig:"LEADCOLLECT_SWEEP_BATCH_SIZE" default:"100"`
	LockTTL    time.Duration `envconfig:"LEADCOLLECT_SWEEP_LOCK_TTL" default:"30m"`
}

// APIConfig secures the inbound polling/event endpoints.
type APIConfig struct {
	Secret string `envconfig:"LEADCOLLECT_API_SECRET" required:"true"`
}

type RestoreConfig struct {
	CartPageURL string        `envconfig:"LEADCOLLECT_RESTORE_CART_PAGE_URL" required:"true"`
	MarkerTTL   time.Duration `envconfig:"LEADCOLLECT_RESTORE_MARKER_TTL" default:"720h"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"LEADCOLLECT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
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
