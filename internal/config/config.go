package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer     string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string   `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string   `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`

	// HTTP hardening.
	HTTPRequestTimeout time.Duration `mapstructure:"HTTP_REQUEST_TIMEOUT"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	BatchBodyLimit     string        `mapstructure:"BATCH_BODY_LIMIT"`

	// Adjudication tuning. All monetary thresholds are in cents.
	HighValueThresholdCents   int64         `mapstructure:"HIGH_VALUE_THRESHOLD_CENTS"`
	MediumValueThresholdCents int64         `mapstructure:"MEDIUM_VALUE_THRESHOLD_CENTS"`
	ExpeditedMaxAmountCents   int64         `mapstructure:"EXPEDITED_MAX_AMOUNT_CENTS"`
	ExpeditedMaxAge           time.Duration `mapstructure:"EXPEDITED_MAX_AGE"`
	LargeClaimThresholdCents  int64         `mapstructure:"LARGE_CLAIM_THRESHOLD_CENTS"`
	WorkflowTimeout           time.Duration `mapstructure:"WORKFLOW_TIMEOUT"`
	ManualWorkflowTimeout     time.Duration `mapstructure:"MANUAL_WORKFLOW_TIMEOUT"`
	SlowRunThreshold          time.Duration `mapstructure:"SLOW_RUN_THRESHOLD"`
	QueueDrainInterval        time.Duration `mapstructure:"QUEUE_DRAIN_INTERVAL"`
	QueueBatchSize            int           `mapstructure:"QUEUE_BATCH_SIZE"`
}

// Ceilings for the per-run workflow timeout in automatic and manual
// processing modes.
const (
	MaxAutomaticTimeout = 30 * time.Minute
	MaxManualTimeout    = 72 * time.Hour
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("BATCH_BODY_LIMIT", "10M")
	v.SetDefault("HIGH_VALUE_THRESHOLD_CENTS", 2_500_000)
	v.SetDefault("MEDIUM_VALUE_THRESHOLD_CENTS", 1_000_000)
	v.SetDefault("EXPEDITED_MAX_AMOUNT_CENTS", 100_000)
	v.SetDefault("EXPEDITED_MAX_AGE", "72h")
	v.SetDefault("LARGE_CLAIM_THRESHOLD_CENTS", 1_000_000)
	v.SetDefault("WORKFLOW_TIMEOUT", "5m")
	v.SetDefault("MANUAL_WORKFLOW_TIMEOUT", "72h")
	v.SetDefault("SLOW_RUN_THRESHOLD", "30s")
	v.SetDefault("QUEUE_DRAIN_INTERVAL", "10s")
	v.SetDefault("QUEUE_BATCH_SIZE", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("HTTP_REQUEST_TIMEOUT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("BATCH_BODY_LIMIT")
	v.BindEnv("HIGH_VALUE_THRESHOLD_CENTS")
	v.BindEnv("MEDIUM_VALUE_THRESHOLD_CENTS")
	v.BindEnv("EXPEDITED_MAX_AMOUNT_CENTS")
	v.BindEnv("EXPEDITED_MAX_AGE")
	v.BindEnv("LARGE_CLAIM_THRESHOLD_CENTS")
	v.BindEnv("WORKFLOW_TIMEOUT")
	v.BindEnv("MANUAL_WORKFLOW_TIMEOUT")
	v.BindEnv("SLOW_RUN_THRESHOLD")
	v.BindEnv("QUEUE_DRAIN_INTERVAL")
	v.BindEnv("QUEUE_BATCH_SIZE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, all requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production a
// database and real JWT authentication are required, and the adjudication
// thresholds must be internally consistent.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.AuthIssuer == "" && c.AuthSigningKey == "" {
			return fmt.Errorf("AUTH_ISSUER or AUTH_SIGNING_KEY must be set in production; " +
				"refusing to start without authentication configuration")
		}
	}

	if c.MediumValueThresholdCents >= c.HighValueThresholdCents {
		return fmt.Errorf("MEDIUM_VALUE_THRESHOLD_CENTS (%d) must be below HIGH_VALUE_THRESHOLD_CENTS (%d)",
			c.MediumValueThresholdCents, c.HighValueThresholdCents)
	}
	if c.ExpeditedMaxAmountCents <= 0 {
		return fmt.Errorf("EXPEDITED_MAX_AMOUNT_CENTS must be positive, got %d", c.ExpeditedMaxAmountCents)
	}
	if c.ExpeditedMaxAmountCents > c.MediumValueThresholdCents {
		return fmt.Errorf("EXPEDITED_MAX_AMOUNT_CENTS (%d) must not exceed MEDIUM_VALUE_THRESHOLD_CENTS (%d)",
			c.ExpeditedMaxAmountCents, c.MediumValueThresholdCents)
	}

	if c.HTTPRequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive, got %s", c.HTTPRequestTimeout)
	}
	if c.WorkflowTimeout <= 0 {
		return fmt.Errorf("WORKFLOW_TIMEOUT must be positive, got %s", c.WorkflowTimeout)
	}
	if c.WorkflowTimeout > MaxAutomaticTimeout {
		return fmt.Errorf("WORKFLOW_TIMEOUT must not exceed %s, got %s", MaxAutomaticTimeout, c.WorkflowTimeout)
	}
	if c.ManualWorkflowTimeout <= 0 || c.ManualWorkflowTimeout > MaxManualTimeout {
		return fmt.Errorf("MANUAL_WORKFLOW_TIMEOUT must be in (0, %s], got %s", MaxManualTimeout, c.ManualWorkflowTimeout)
	}

	if c.QueueDrainInterval <= 0 {
		return fmt.Errorf("QUEUE_DRAIN_INTERVAL must be positive, got %s", c.QueueDrainInterval)
	}
	if c.QueueBatchSize <= 0 {
		return fmt.Errorf("QUEUE_BATCH_SIZE must be positive, got %d", c.QueueBatchSize)
	}

	return nil
}
