package config

import (
	"net/http"
	"time"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
)

// Config is the top-level publishhub configuration
type Config struct {
	// BaseURL is the publishing proxy all platform calls go through.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout applies to every proxy call unless a platform overrides it.
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries"`

	// Platforms lists configurations provided directly by the caller.
	// Configurations loaded through Source are appended at construction.
	Platforms []*PlatformConfig `json:"platforms,omitempty" yaml:"platforms,omitempty"`

	// Source optionally loads further platform configurations at
	// construction time. A failing load aborts manager construction.
	Source Source `json:"-" yaml:"-"`

	// TaskStore selects where scheduled task records live.
	TaskStore TaskStoreConfig `json:"task_store" yaml:"task_store"`

	// Telemetry configures OpenTelemetry tracing and metrics.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Logger settings
	Logger         LoggerConfig  `json:"logger" yaml:"logger"`
	LoggerInstance logger.Logger `json:"-" yaml:"-"`

	// HTTPClient overrides the transport's default client when set.
	HTTPClient *http.Client `json:"-" yaml:"-"`
}

// LoggerConfig configures logging behavior
type LoggerConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// TaskStoreConfig selects the scheduled-task store backend
type TaskStoreConfig struct {
	// Type is "memory", "redis", or empty to disable scheduling support.
	Type  string        `json:"type" yaml:"type"`
	Redis *RedisOptions `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisOptions configures the redis task store connection
type RedisOptions struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Password     string        `json:"password,omitempty" yaml:"password,omitempty"`
	DB           int           `json:"db" yaml:"db"`
	DialTimeout  time.Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
	PoolSize     int           `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
	KeyPrefix    string        `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`

	// TerminalTTL expires finished task records after the given duration.
	// Zero keeps them forever.
	TerminalTTL time.Duration `json:"terminal_ttl,omitempty" yaml:"terminal_ttl,omitempty"`
}

// TelemetryConfig configures OpenTelemetry export
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	ServiceName string `json:"service_name" yaml:"service_name"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	Insecure    bool   `json:"insecure" yaml:"insecure"`
}

// Option is a functional option for configuring publishhub
type Option func(*Config) error

// New creates a new configuration with the given options
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Task store backend names accepted by TaskStoreConfig.Type.
const (
	TaskStoreMemory = "memory"
	TaskStoreRedis  = "redis"
)

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		return errors.New(errors.ErrInvalidConfig, "max_retries cannot be negative")
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}

	if c.BaseURL == "" && c.Source == nil && len(c.Platforms) == 0 {
		return errors.New(errors.ErrInvalidConfig,
			"no base URL, config source, or platform configurations provided")
	}

	switch c.TaskStore.Type {
	case "", TaskStoreMemory:
	case TaskStoreRedis:
		if c.TaskStore.Redis == nil || c.TaskStore.Redis.Addr == "" {
			return errors.New(errors.ErrInvalidConfig, "redis task store requires an address")
		}
	default:
		return errors.Newf(errors.ErrInvalidConfig, "unknown task store type %q", c.TaskStore.Type)
	}

	// Caller-provided platform configurations fail fast. Source-loaded
	// ones are validated at registration and skipped on error instead.
	// Disabled configurations are inert and never block construction.
	for _, pc := range c.Platforms {
		if pc == nil || !pc.Enabled {
			continue
		}
		if err := pc.Validate(); err != nil {
			return err
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "publishhub"
	}

	if c.Logger.Level == "" {
		c.Logger.Level = "warn"
	}
	if c.LoggerInstance == nil {
		c.LoggerInstance = logger.New().LogMode(logger.ParseLevel(c.Logger.Level))
	}

	return nil
}

// HasPlatform reports whether a configuration for the named platform is present
func (c *Config) HasPlatform(platform string) bool {
	for _, pc := range c.Platforms {
		if pc.Platform == platform {
			return true
		}
	}
	return false
}

// PlatformNames returns the names of all configured platforms
func (c *Config) PlatformNames() []string {
	names := make([]string, 0, len(c.Platforms))
	for _, pc := range c.Platforms {
		names = append(names, pc.Platform)
	}
	return names
}
