package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Order API
	OrdersBaseURL        string        `envconfig:"ORDERS_API_URL" default:"http://localhost:3000/api"`
	OrdersToken          string        `envconfig:"ORDERS_API_TOKEN"`
	OrdersTimeout        time.Duration `envconfig:"ORDERS_API_TIMEOUT" default:"15s"`
	OrdersRetryAttempts  int           `envconfig:"ORDERS_RETRY_ATTEMPTS" default:"3"`
	OrdersRetryBaseDelay time.Duration `envconfig:"ORDERS_RETRY_BASE_DELAY" default:"200ms"`
	OrdersRetryMaxDelay  time.Duration `envconfig:"ORDERS_RETRY_MAX_DELAY" default:"2s"`

	// Pathao
	PathaoBaseURL      string `envconfig:"PATHAO_BASE_URL" default:"https://api-hermes.pathao.com"`
	PathaoClientID     string `envconfig:"PATHAO_CLIENT_ID"`
	PathaoClientSecret string `envconfig:"PATHAO_CLIENT_SECRET"`
	PathaoUsername     string `envconfig:"PATHAO_USERNAME"`
	PathaoPassword     string `envconfig:"PATHAO_PASSWORD"`
	PathaoEnabled      bool   `envconfig:"PATHAO_ENABLED" default:"true"`
	PathaoUseMock      bool   `envconfig:"PATHAO_USE_MOCK" default:"false"`

	// RedX
	RedXBaseURL     string `envconfig:"REDX_BASE_URL" default:"https://openapi.redx.com.bd/v1.0.0-beta"`
	RedXAccessToken string `envconfig:"REDX_ACCESS_TOKEN"`
	RedXEnabled     bool   `envconfig:"REDX_ENABLED" default:"true"`
	RedXUseMock     bool   `envconfig:"REDX_USE_MOCK" default:"false"`

	// Steadfast
	SteadfastBaseURL   string `envconfig:"STEADFAST_BASE_URL" default:"https://portal.packzy.com/api/v1"`
	SteadfastAPIKey    string `envconfig:"STEADFAST_API_KEY"`
	SteadfastSecretKey string `envconfig:"STEADFAST_SECRET_KEY"`
	SteadfastEnabled   bool   `envconfig:"STEADFAST_ENABLED" default:"true"`
	SteadfastUseMock   bool   `envconfig:"STEADFAST_USE_MOCK" default:"false"`

	// Shipment journal. Empty disables it.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	AutoMigrate bool   `envconfig:"DATABASE_AUTO_MIGRATE" default:"true"`

	// Location cache. Empty address disables it.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	LocationTTL   time.Duration `envconfig:"LOCATION_CACHE_TTL" default:"24h"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"courier-bridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory when one exists. Variables already
// set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("pathao.enabled", c.PathaoEnabled),
		attribute.Bool("redx.enabled", c.RedXEnabled),
		attribute.Bool("steadfast.enabled", c.SteadfastEnabled),
		attribute.Bool("journal.enabled", c.DatabaseURL != ""),
		attribute.Bool("location_cache.enabled", c.RedisAddr != ""),
	}
}
