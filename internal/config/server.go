package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apierrors "github.com/diogo/aichat/internal/errors"
)

const completionsPath = "/chat/completions"

// Upstream settings the relay cannot answer without.
const (
	KeyAPIKey = "AI_API_KEY"
	KeyAPIURL = "AI_API_URL"
	KeyModel  = "AI_MODEL"
)

// ServerConfig configures the /api/chat relay.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"5000"`

	APIKey string `env:"AI_API_KEY"`
	APIURL string `env:"AI_API_URL"`
	Model  string `env:"AI_MODEL"`

	Temperature    float64 `env:"AI_TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int     `env:"AI_MAX_TOKENS" envDefault:"1000"`
	TimeoutSeconds int     `env:"AI_TIMEOUT_SECONDS" envDefault:"30"`

	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0"`
	CORSOrigin         string `env:"CORS_ORIGIN" envDefault:"*"`
	Debug              bool   `env:"DEBUG" envDefault:"false"`
}

// LoadServerConfig reads the optional dotenv files, then the environment.
// Variables already present in the environment win over dotenv values.
func LoadServerConfig(envFiles ...string) (*ServerConfig, error) {
	if len(envFiles) == 0 {
		// A missing .env is fine; the environment may carry everything.
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.APIURL = NormalizeAPIURL(cfg.APIURL)
	return cfg, nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CheckUpstream reports every empty upstream setting as a
// *errors.ConfigError, in the order AI_API_KEY, AI_API_URL, AI_MODEL.
// errors.As on the result finds the first one.
func (c *ServerConfig) CheckUpstream() error {
	var errs []error
	for _, s := range []struct{ key, value string }{
		{KeyAPIKey, c.APIKey},
		{KeyAPIURL, c.APIURL},
		{KeyModel, c.Model},
	} {
		if s.value == "" {
			errs = append(errs, apierrors.NewConfigError(s.key, "not set"))
		}
	}
	return errors.Join(errs...)
}

// Timeout returns the upstream request timeout.
func (c *ServerConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NormalizeAPIURL completes a base URL to its /chat/completions endpoint.
//
//	https://api.example.com/v1   -> https://api.example.com/v1/chat/completions
//	https://api.example.com/v1/  -> https://api.example.com/v1/chat/completions
//	https://api.example.com      -> https://api.example.com/chat/completions
func NormalizeAPIURL(u string) string {
	if u == "" || strings.HasSuffix(u, completionsPath) {
		return u
	}
	switch {
	case strings.HasSuffix(u, "/v1"):
		return u + completionsPath
	case !strings.HasSuffix(u, "/"):
		return u + completionsPath
	default:
		return u + strings.TrimPrefix(completionsPath, "/")
	}
}
