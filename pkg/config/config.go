package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App       AppConfig
	Stripe    StripeConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Payments  PaymentsConfig
	Webhook   WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLUBFUNDS_APP_ENV" default:"development"`
	Port         string `envconfig:"CLUBFUNDS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CLUBFUNDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLUBFUNDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StripeConfig struct {
	APIKey        string `envconfig:"CLUBFUNDS_STRIPE_API_KEY"`
	SigningSecret string `envconfig:"CLUBFUNDS_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"CLUBFUNDS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Configured reports whether real provider calls can be made. When false the
// API degrades to demo responses instead of charging anyone.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type FirestoreConfig struct {
	ProjectID       string `envconfig:"CLUBFUNDS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CLUBFUNDS_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"CLUBFUNDS_GOOGLE_APPLICATION_CREDENTIALS"`
}

// Configured reports whether a record store connection can be opened.
func (f FirestoreConfig) Configured() bool {
	return strings.TrimSpace(f.ProjectID) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"CLUBFUNDS_REDIS_URL"`
	Address      string        `envconfig:"CLUBFUNDS_REDIS_ADDR"`
	Password     string        `envconfig:"CLUBFUNDS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLUBFUNDS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLUBFUNDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLUBFUNDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLUBFUNDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLUBFUNDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLUBFUNDS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RateLimitConfig struct {
	Window  time.Duration `envconfig:"CLUBFUNDS_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"CLUBFUNDS_RATE_LIMIT_IP_LIMIT" default:"60"`
}

type PaymentsConfig struct {
	SupportedCurrency string `envconfig:"CLUBFUNDS_SUPPORTED_CURRENCY" default:"usd"`
	MinimumAmount     int64  `envconfig:"CLUBFUNDS_MINIMUM_AMOUNT" default:"50"`
}

// Currency returns the single supported currency, lowercased.
func (p PaymentsConfig) Currency() string {
	cur := strings.TrimSpace(strings.ToLower(p.SupportedCurrency))
	if cur == "" {
		return "usd"
	}
	return cur
}

type WebhookConfig struct {
	EventGuardTTL time.Duration `envconfig:"CLUBFUNDS_WEBHOOK_EVENT_GUARD_TTL" default:"72h"`
}
