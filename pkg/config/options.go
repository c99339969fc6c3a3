// Functional options for publishhub configuration
package config

import (
	"net/http"
	"time"

	"github.com/kart-io/publishhub/pkg/logger"
)

// WithBaseURL sets the publishing proxy base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Config) error {
		c.BaseURL = baseURL
		return nil
	}
}

// WithTimeout sets the default timeout for proxy calls
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		c.Timeout = timeout
		return nil
	}
}

// WithMaxRetries sets the retry cap recorded on scheduled tasks
func WithMaxRetries(maxRetries int) Option {
	return func(c *Config) error {
		c.MaxRetries = maxRetries
		return nil
	}
}

// WithPlatform adds a single platform configuration
func WithPlatform(pc *PlatformConfig) Option {
	return func(c *Config) error {
		c.Platforms = append(c.Platforms, pc)
		return nil
	}
}

// WithPlatforms adds multiple platform configurations
func WithPlatforms(pcs ...*PlatformConfig) Option {
	return func(c *Config) error {
		c.Platforms = append(c.Platforms, pcs...)
		return nil
	}
}

// WithSource sets the platform configuration source
func WithSource(source Source) Option {
	return func(c *Config) error {
		c.Source = source
		return nil
	}
}

// WithHTTPSource loads platform configurations from the config endpoint
// exposed by the admin backend at the given base URL
func WithHTTPSource(baseURL string) Option {
	return func(c *Config) error {
		c.Source = NewHTTPSource(baseURL)
		return nil
	}
}

// WithFileSource loads platform configurations from a YAML file
func WithFileSource(path string) Option {
	return func(c *Config) error {
		c.Source = NewFileSource(path)
		return nil
	}
}

// WithLogger sets the logger instance
func WithLogger(l logger.Logger) Option {
	return func(c *Config) error {
		c.LoggerInstance = l
		return nil
	}
}

// WithLogLevel sets the logging level by name ("silent", "error", "warn",
// "info", "debug")
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logger.Level = level
		return nil
	}
}

// WithHTTPClient overrides the HTTP client used for proxy calls
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) error {
		c.HTTPClient = client
		return nil
	}
}

// WithMemoryTaskStore stores scheduled task records in process memory
func WithMemoryTaskStore() Option {
	return func(c *Config) error {
		c.TaskStore = TaskStoreConfig{Type: TaskStoreMemory}
		return nil
	}
}

// WithRedisTaskStore stores scheduled task records in redis
func WithRedisTaskStore(addr string) Option {
	return func(c *Config) error {
		c.TaskStore = TaskStoreConfig{
			Type:  TaskStoreRedis,
			Redis: &RedisOptions{Addr: addr},
		}
		return nil
	}
}

// WithRedisOptions stores scheduled task records in redis with full
// connection options
func WithRedisOptions(opts RedisOptions) Option {
	return func(c *Config) error {
		c.TaskStore = TaskStoreConfig{
			Type:  TaskStoreRedis,
			Redis: &opts,
		}
		return nil
	}
}

// WithTelemetry enables OpenTelemetry export to the given OTLP endpoint
func WithTelemetry(serviceName, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry = TelemetryConfig{
			Enabled:     true,
			ServiceName: serviceName,
			Endpoint:    endpoint,
			Insecure:    true,
		}
		return nil
	}
}

// WithDefaults applies sensible production defaults
func WithDefaults() Option {
	return func(c *Config) error {
		c.Timeout = 30 * time.Second
		c.MaxRetries = 3
		c.Logger.Level = "warn"
		if c.TaskStore.Type == "" {
			c.TaskStore.Type = TaskStoreMemory
		}
		return nil
	}
}

// WithTestDefaults applies defaults suitable for testing
func WithTestDefaults() Option {
	return func(c *Config) error {
		c.Timeout = 5 * time.Second
		c.MaxRetries = 1
		c.Logger.Level = "silent"
		c.TaskStore.Type = TaskStoreMemory
		return nil
	}
}
