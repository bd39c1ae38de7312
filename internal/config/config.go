package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

const (
	ConduitLog     = "log"
	ConduitWebhook = "webhook"
	ConduitKafka   = "kafka"

	FeePolicyHourly = "hourly"
	FeePolicyFlat   = "flat"
)

var ErrInvalidConfig = errors.New("invalid config")

type DBConfig struct {
	DatabaseURL        string `env:"DATABASE_URL,required"`
	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int    `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int    `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	AutoMigrate        bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	MigrationsDir      string `env:"DB_MIGRATIONS_DIR"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
}

type OutboxConfig struct {
	PollInterval   time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	Conduit        string        `env:"OUTBOX_CONDUIT" envDefault:"log"`
	WebhookURL     string        `env:"EVENT_WEBHOOK_URL"`
	WebhookSecret  string        `env:"EVENT_WEBHOOK_SECRET"`
	WebhookTimeout time.Duration `env:"EVENT_WEBHOOK_TIMEOUT" envDefault:"10s"`
	KafkaBrokers   []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string        `env:"KAFKA_TOPIC" envDefault:"payment-events"`
}

type AuditConfig struct {
	Enabled     bool          `env:"CLIENT_AUDIT_ENABLED" envDefault:"false"`
	ProviderURL string        `env:"CLIENT_AUDIT_PROVIDER_URL" envDefault:"http://ip-api.com/json"`
	Workers     int           `env:"CLIENT_AUDIT_WORKERS" envDefault:"2"`
	QueueSize   int           `env:"CLIENT_AUDIT_QUEUE_SIZE" envDefault:"256"`
	Timeout     time.Duration `env:"CLIENT_AUDIT_TIMEOUT" envDefault:"3s"`
}

// TracingConfig enables OTLP span export. An empty endpoint keeps tracing
// local to the process.
type TracingConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`
}

type Config struct {
	DB      DBConfig
	Auth    AuthConfig
	Outbox  OutboxConfig
	Audit   AuditConfig
	Tracing TracingConfig

	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`

	FeePolicy      string          `env:"CANCELLATION_FEE_POLICY" envDefault:"hourly"`
	FlatFee        decimal.Decimal `env:"CANCELLATION_FLAT_FEE" envDefault:"0"`
	IdempotencyTTL time.Duration   `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// SinkConfig configures cmd/event-sink, the downstream receiver for the
// webhook conduit.
type SinkConfig struct {
	DB DBConfig

	Port     int    `env:"SINK_PORT" envDefault:"8081"`
	Secret   string `env:"EVENT_WEBHOOK_SECRET,required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
}

func LoadSink() (*SinkConfig, error) {
	cfg, err := env.ParseAs[SinkConfig]()
	if err != nil {
		return nil, fmt.Errorf("config.LoadSink: %w", err)
	}
	return &cfg, nil
}

// LoadDB reads only the database settings, for tools that never serve HTTP.
func LoadDB() (*DBConfig, error) {
	cfg, err := env.ParseAs[DBConfig]()
	if err != nil {
		return nil, fmt.Errorf("config.LoadDB: %w", err)
	}
	return &cfg, nil
}

func LoadAuth() (*AuthConfig, error) {
	cfg, err := env.ParseAs[AuthConfig]()
	if err != nil {
		return nil, fmt.Errorf("config.LoadAuth: %w", err)
	}
	return &cfg, nil
}

// LoadOutbox reads the outbox settings and validates the conduit choice.
func LoadOutbox() (*OutboxConfig, error) {
	cfg, err := env.ParseAs[OutboxConfig]()
	if err != nil {
		return nil, fmt.Errorf("config.LoadOutbox: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.LoadOutbox: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.FeePolicy {
	case FeePolicyHourly:
	case FeePolicyFlat:
		if c.FlatFee.IsNegative() {
			return fmt.Errorf("%w: CANCELLATION_FLAT_FEE must not be negative", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown CANCELLATION_FEE_POLICY %q", ErrInvalidConfig, c.FeePolicy)
	}

	if err := c.Outbox.Validate(); err != nil {
		return err
	}

	if c.Audit.Enabled && (c.Audit.Workers <= 0 || c.Audit.QueueSize <= 0) {
		return fmt.Errorf("%w: CLIENT_AUDIT_WORKERS and CLIENT_AUDIT_QUEUE_SIZE must be positive", ErrInvalidConfig)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: OTEL_TRACES_SAMPLER_RATIO must be between 0 and 1", ErrInvalidConfig)
	}
	return nil
}

func (c *OutboxConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: OUTBOX_POLL_INTERVAL must be positive", ErrInvalidConfig)
	}

	switch c.Conduit {
	case ConduitLog:
	case ConduitWebhook:
		if c.WebhookURL == "" || c.WebhookSecret == "" {
			return fmt.Errorf("%w: webhook conduit needs EVENT_WEBHOOK_URL and EVENT_WEBHOOK_SECRET", ErrInvalidConfig)
		}
	case ConduitKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("%w: kafka conduit needs KAFKA_BROKERS and KAFKA_TOPIC", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown OUTBOX_CONDUIT %q", ErrInvalidConfig, c.Conduit)
	}
	return nil
}
