package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port          int           `envconfig:"PORT" default:"8080"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	Version       string        `envconfig:"VERSION" default:"dev"`
	DatabaseURL   string        `envconfig:"DATABASE_URL" default:""`
	RunMigrations bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
	StoreTimeout  time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	DBMaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`

	IdentityJWKSURL           string        `envconfig:"IDENTITY_JWKS_URL" required:"true"`
	IdentityIssuer            string        `envconfig:"IDENTITY_ISSUER" default:""`
	IdentityAuthorizedParties []string      `envconfig:"IDENTITY_AUTHORIZED_PARTIES" default:""`
	IdentityTimeout           time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"5s"`
	IdentityJWKSRefresh       time.Duration `envconfig:"IDENTITY_JWKS_REFRESH" default:"1h"`

	DefaultRequestsLimit int `envconfig:"DEFAULT_REQUESTS_LIMIT" default:"10"`

	LLMAPIURL  string        `envconfig:"LLM_API_URL" default:"https://openrouter.ai/api/v1/chat/completions"`
	LLMAPIKey  string        `envconfig:"LLM_API_KEY" default:""`
	LLMModel   string        `envconfig:"LLM_MODEL" default:"anthropic/claude-3.5-sonnet"`
	LLMTimeout time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.DefaultRequestsLimit < 1 {
		return nil, fmt.Errorf("DEFAULT_REQUESTS_LIMIT must be at least 1, got %d", cfg.DefaultRequestsLimit)
	}
	return &cfg, nil
}
