package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/robfig/cron/v3"
)

// DevJWTSecret is the signing secret used when JWT_SECRET is unset. It is
// fine for local runs only.
const DevJWTSecret = "fintrack-dev-secret-do-not-use-in-prod"

type Config struct {
	// HTTP Server
	Port              string        `yaml:"port" env:"PORT" env-default:"3000" env-description:"HTTP listen port"`
	RateLimitRequests int           `yaml:"rate_limit_requests" env:"RATE_LIMIT_REQUESTS" env-default:"100" env-description:"Requests allowed per client per window"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window" env:"RATE_LIMIT_WINDOW" env-default:"15m" env-description:"Rate limit window length"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"102400" env-description:"Maximum JSON request body size"`
	CORSAllowedOrigin string        `yaml:"cors_allowed_origin" env:"CORS_ALLOWED_ORIGIN" env-default:"*" env-description:"Access-Control-Allow-Origin value"`
	TrustedProxies    []string      `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:"," env-description:"Proxy IPs allowed to set X-Forwarded-For"`

	// Storage
	DataBackend string `yaml:"data_backend" env:"DATA_BACKEND" env-default:"memory" env-description:"Storage backend: memory or sqlite"`
	SQLiteDSN   string `yaml:"sqlite_dsn" env:"SQLITE_DSN" env-default:"file:fintrack?mode=memory&cache=shared" env-description:"SQLite data source name"`

	// Auth
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"fintrack-dev-secret-do-not-use-in-prod" env-description:"HMAC secret for session and reset tokens"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h" env-description:"Session token lifetime"`
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl" env:"RESET_TOKEN_TTL" env-default:"1h" env-description:"Password reset token lifetime"`
	RequireAuth   bool          `yaml:"require_auth" env:"REQUIRE_AUTH" env-default:"false" env-description:"Require a bearer token on data routes"`

	// AMQP
	AMQPURL      string `yaml:"amqp_url" env:"AMQP_URL" env-description:"RabbitMQ URL; empty disables alert publishing"`
	AMQPExchange string `yaml:"amqp_exchange" env:"AMQP_EXCHANGE" env-default:"fintrack"`
	AMQPQueue    string `yaml:"amqp_queue" env:"AMQP_QUEUE" env-default:"budget_alerts"`

	// Alerts
	AlertSchedule string `yaml:"alert_schedule" env:"ALERT_SCHEDULE" env-default:"@daily" env-description:"Cron spec for the budget threshold scan; empty disables it"`

	// Mail
	SMTPHost       string `yaml:"smtp_host" env:"SMTP_HOST" env-description:"SMTP server; empty logs mail instead of sending it"`
	SMTPPort       int    `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser       string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPassword   string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
	MailFrom       string `yaml:"mail_from" env:"MAIL_FROM"`
	AlertRecipient string `yaml:"alert_recipient" env:"ALERT_RECIPIENT" env-description:"Address budget alerts are mailed to"`

	// Insights backend
	InsightsURL     string        `yaml:"insights_url" env:"INSIGHTS_URL" env-default:"http://localhost:8000"`
	InsightsTimeout time.Duration `yaml:"insights_timeout" env:"INSIGHTS_TIMEOUT" env-default:"10s"`

	// Logging
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text" env-description:"text or json"`
}

// Load reads the configuration from the YAML file named by CONFIG_PATH, if
// any, and then from the environment. Environment values win.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// Usage describes every supported environment variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return text
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDSN == "" {
		errors = append(errors, "SQLite DSN cannot be empty when using sqlite backend")
	}

	// Validate HTTP limits
	if c.RateLimitRequests < 1 || c.RateLimitRequests > 100000 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be between 1 and 100000", c.RateLimitRequests))
	}
	if c.RateLimitWindow < time.Second || c.RateLimitWindow > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rate limit window %v: must be between 1s and 24h", c.RateLimitWindow))
	}
	if c.MaxBodyBytes < 1024 || c.MaxBodyBytes > 10<<20 {
		errors = append(errors, fmt.Sprintf("invalid max body size %d: must be between 1KiB and 10MiB", c.MaxBodyBytes))
	}

	// Validate auth
	if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT secret must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}
	if c.ResetTokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid reset token TTL %v: must be positive", c.ResetTokenTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate alert schedule
	if c.AlertSchedule != "" {
		if _, err := cron.ParseStandard(c.AlertSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid alert schedule '%s': %v", c.AlertSchedule, err))
		}
	}

	// Validate mail settings if SMTP is configured
	if c.SMTPHost != "" {
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid SMTP port %d: must be between 1 and 65535", c.SMTPPort))
		}
		if c.MailFrom == "" {
			errors = append(errors, "MAIL_FROM is required when SMTP_HOST is set")
		}
	}

	// Validate insights backend
	if parsedURL, err := url.Parse(c.InsightsURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid insights URL '%s': must be an absolute http(s) URL", c.InsightsURL))
	}
	if c.InsightsTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid insights timeout %v: must be positive", c.InsightsTimeout))
	}

	// Validate logging
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// UsesDevSecret reports whether tokens are signed with the built-in secret.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
