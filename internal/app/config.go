package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogMode  string `envconfig:"LOG_MODE" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogHashSalt keys the hashes written in place of user and session ids.
	LogHashSalt string `envconfig:"LOG_HASH_SALT"`

	CORSOrigins  []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	PublicOrigin string   `envconfig:"PUBLIC_APP_ORIGIN" default:"http://localhost:5173"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Supabase SupabaseConfig
	Otel     OtelConfig

	IdentityMode     string `envconfig:"IDENTITY_MODE" default:"jwt"`
	UsageLimitPolicy string `envconfig:"USAGE_LIMIT_POLICY" default:"soft"`
	PlansFile        string `envconfig:"PLANS_FILE"`

	SessionIdleTTL       time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
	ChartFontPath        string        `envconfig:"CHART_FONT_PATH"`
	ScoringSeed          int64         `envconfig:"SCORING_SEED"`
}

type PostgresConfig struct {
	DSN             string        `envconfig:"POSTGRES_DSN"`
	Host            string        `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port            string        `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" default:"postgres"`
	Password        string        `envconfig:"POSTGRES_PASSWORD"`
	Name            string        `envconfig:"POSTGRES_NAME" default:"edges"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"30m"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_PREFIX" default:"edges:"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
}

type SupabaseConfig struct {
	URL             string `envconfig:"SUPABASE_URL"`
	ServiceRoleKey  string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret       string `envconfig:"SUPABASE_JWT_SECRET"`
	RequireAudience bool   `envconfig:"SUPABASE_JWT_REQUIRE_AUDIENCE" default:"true"`
}

type OtelConfig struct {
	Enabled     bool    `envconfig:"OTEL_ENABLED"`
	ServiceName string  `envconfig:"OTEL_SERVICE_NAME" default:"edges-backend"`
	Environment string  `envconfig:"OTEL_ENVIRONMENT" default:"development"`
	Version     string  `envconfig:"OTEL_SERVICE_VERSION"`
	Endpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Headers     string  `envconfig:"OTEL_EXPORTER_OTLP_HEADERS"`
	Insecure    bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
	SampleRatio float64 `envconfig:"OTEL_TRACES_SAMPLER_RATIO" default:"1"`
}

// LoadConfig reads an optional .env file (ENV_FILE or ./.env) and then the
// process environment, which wins over the file.
func LoadConfig() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// logFields is the non-secret part of the config, logged at startup.
func (c Config) logFields() []interface{} {
	return []interface{}{
		"port", c.Port,
		"identity_mode", c.IdentityMode,
		"usage_limit_policy", c.UsageLimitPolicy,
		"redis_enabled", c.Redis.Addr != "",
		"stripe_enabled", c.Stripe.SecretKey != "",
		"otel_enabled", c.Otel.Enabled,
		"plans_file", c.PlansFile,
	}
}

func newLogger(c Config) (*logger.Logger, error) {
	return logger.NewWithOptions(logger.Options{
		Mode:     c.LogMode,
		Level:    c.LogLevel,
		Redact:   true,
		HashSalt: c.LogHashSalt,
	})
}
