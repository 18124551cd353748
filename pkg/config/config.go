package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "TICPIN"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "TICPIN_APP_ENV"
	EnvPort     = "TICPIN_APP_PORT"
	EnvDBDSN    = "TICPIN_DB_DSN"
	EnvDBHost   = "TICPIN_DB_HOST"
	EnvDBUser   = "TICPIN_DB_USER"
	EnvDBName   = "TICPIN_DB_NAME"
	EnvRedisURL = "TICPIN_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	PubSub       PubSubConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TICPIN_APP_ENV" required:"true"`
	Port         string `envconfig:"TICPIN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TICPIN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TICPIN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TICPIN_DB_DSN"`
	Driver string `envconfig:"TICPIN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TICPIN_DB_HOST"`
	LegacyPort     int    `envconfig:"TICPIN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TICPIN_DB_USER"`
	LegacyPassword string `envconfig:"TICPIN_DB_PASSWORD"`
	LegacyName     string `envconfig:"TICPIN_DB_NAME"`
	LegacySSLMode  string `envconfig:"TICPIN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TICPIN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TICPIN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TICPIN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TICPIN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TICPIN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TICPIN_REDIS_ADDR"`
	Password     string        `envconfig:"TICPIN_REDIS_PASSWORD"`
	DB           int           `envconfig:"TICPIN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TICPIN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TICPIN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TICPIN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TICPIN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TICPIN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TICPIN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TICPIN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TICPIN_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// CheckoutConfig carries the pricing constants and session retention knobs.
type CheckoutConfig struct {
	// BookingFeePercent is the fixed surcharge applied to the order amount
	// before discounts, expressed in percent.
	BookingFeePercent int           `envconfig:"TICPIN_BOOKING_FEE_PERCENT" default:"10"`
	SessionTTL        time.Duration `envconfig:"TICPIN_CHECKOUT_SESSION_TTL" default:"24h"`
}

func (c CheckoutConfig) validate() error {
	if c.BookingFeePercent < 0 || c.BookingFeePercent > 100 {
		return fmt.Errorf("booking fee percent must be within [0,100], got %d", c.BookingFeePercent)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("checkout session ttl must be positive")
	}
	return nil
}

type PubSubConfig struct {
	ProjectID            string `envconfig:"TICPIN_GCP_PROJECT_ID"`
	BookingsTopic        string `envconfig:"TICPIN_PUBSUB_BOOKINGS_TOPIC" default:"ticpin-booking-events"`
	BookingsSubscription string `envconfig:"TICPIN_PUBSUB_BOOKINGS_SUBSCRIPTION"`
}

// Enabled reports whether booking events should be published at all.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ProjectID) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TICPIN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TICPIN_AUTO_MIGRATE" default:"false"`
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
