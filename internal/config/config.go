package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port             int           `envconfig:"PORT" default:"8080"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL      string        `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32         `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	Version          string        `envconfig:"VERSION" default:"dev"`
	JWTSecret        string        `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer        string        `envconfig:"JWT_ISSUER" default:"kasir"`
	JWTTTL           time.Duration `envconfig:"JWT_TTL" default:"12h"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"12"`
	StoreCacheSize   int           `envconfig:"STORE_CACHE_SIZE" default:"1024"`
	StoreCacheTTL    time.Duration `envconfig:"STORE_CACHE_TTL" default:"5m"`
	StockScanCron    string        `envconfig:"STOCK_SCAN_SCHEDULE" default:"*/15 * * * *"`
	Tracing          TracingConfig `envconfig:"TRACING"`
}

// TracingConfig controls OTLP trace export. Keys are prefixed with TRACING_.
type TracingConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	Endpoint    string  `envconfig:"ENDPOINT" default:"localhost:4318"`
	Insecure    bool    `envconfig:"INSECURE" default:"true"`
	SampleRate  float64 `envconfig:"SAMPLE_RATE" default:"1.0"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"kasir"`
}

// Load reads configuration from environment variables into a Config struct.
// Variables from a .env file in the working directory are loaded first and
// never override values already present in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
