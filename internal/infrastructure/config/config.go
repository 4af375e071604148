package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=12h"`

	// BusinessTimeZone decides which calendar day a sales submission belongs to.
	BusinessTimeZone string        `env:"BUSINESS_TIMEZONE,  default=Asia/Manila"`
	StaffEmailDomain string        `env:"STAFF_EMAIL_DOMAIN, default=mealvilla.com"`
	StoreTimeout     time.Duration `env:"STORE_TIMEOUT,      default=10s"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Notify    NotifyConfig
	Bootstrap BootstrapConfig
	Telemetry TelemetryConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=meal_villa"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,       default=0"`
	DedupTTL time.Duration `env:"DEDUP_TTL,      default=26h"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
}

// BootstrapConfig seeds the first developer account. Leaving StaffID empty
// disables seeding.
type BootstrapConfig struct {
	StaffID  string `env:"BOOTSTRAP_STAFF_ID"`
	Name     string `env:"BOOTSTRAP_NAME, default=Developer"`
	Password string `env:"BOOTSTRAP_PASSWORD"`
}

type TelemetryConfig struct {
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE, default=false"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location resolves BusinessTimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BusinessTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load config: BUSINESS_TIMEZONE %q: %w", c.BusinessTimeZone, err)
	}
	return loc, nil
}

func (c *Config) Production() bool {
	return c.Env == "production"
}
