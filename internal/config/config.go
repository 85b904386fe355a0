// Package config handles configuration for the gateway
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

// Config represents the complete configuration for the gateway
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig contains listener settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// AllowedOrigins are extra host patterns accepted on /ws upgrades
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GitHubConfig contains GitHub API settings
type GitHubConfig struct {
	Token   string        `mapstructure:"token"`
	APIURL  string        `mapstructure:"api_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig is the optional credential pair clients must present
type AuthConfig struct {
	ID    string `mapstructure:"id"`
	Token string `mapstructure:"token"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RateLimitConfig limits inbound frames per connection. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool    `mapstructure:"otlp_insecure"`
	ZipkinEndpoint string  `mapstructure:"zipkin_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Enabled reports whether both halves of the credential pair are set
func (a AuthConfig) Enabled() bool {
	return a.ID != "" && a.Token != ""
}

// IsDevelopment reports whether error stacks should be sent to clients
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

var envBindings = map[string]string{
	"server.port":             "PORT",
	"server.environment":      "ENVIRONMENT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"server.allowed_origins":  "ALLOWED_ORIGINS",
	"github.token":            "GITHUB_TOKEN",
	"github.api_url":          "GITHUB_API_URL",
	"github.timeout":          "GITHUB_TIMEOUT",
	"auth.id":                 "AUTH_ID",
	"auth.token":              "AUTH_TOKEN",
	"log.level":               "LOG_LEVEL",
	"rate_limit.rps":          "RATE_LIMIT_RPS",
	"rate_limit.burst":        "RATE_LIMIT_BURST",
	"tracing.enabled":         "TRACING_ENABLED",
	"tracing.otlp_endpoint":   "OTLP_ENDPOINT",
	"tracing.otlp_insecure":   "OTLP_INSECURE",
	"tracing.zipkin_endpoint": "ZIPKIN_ENDPOINT",
	"tracing.sampling_rate":   "TRACING_SAMPLING_RATE",
}

// LoadDotEnv loads variables from a .env file without overriding the real
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

// Load reads defaults, the optional YAML file and the environment.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "failed to bind %s", env)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.environment", "production")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("github.api_url", "")
	v.SetDefault("github.timeout", "30s")

	v.SetDefault("auth.id", "")
	v.SetDefault("auth.token", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("rate_limit.rps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.otlp_insecure", true)
	v.SetDefault("tracing.zipkin_endpoint", "")
	v.SetDefault("tracing.sampling_rate", 1.0)
}

// Validate checks that the configuration can start a server
func (c *Config) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	if (c.Auth.ID == "") != (c.Auth.Token == "") {
		return fmt.Errorf("AUTH_ID and AUTH_TOKEN must be set together")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, ok := observability.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.GitHub.Timeout <= 0 {
		return fmt.Errorf("github timeout must be positive")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing sampling rate must be between 0 and 1")
	}
	return nil
}
