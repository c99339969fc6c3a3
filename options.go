package publishhub

import (
	"net/http"
	"time"

	"github.com/kart-io/publishhub/pkg/config"
)

// RedisOptions configures the redis task store connection
type RedisOptions = config.RedisOptions

// WithBaseURL sets the publishing proxy base URL
func WithBaseURL(baseURL string) Option {
	return config.WithBaseURL(baseURL)
}

// WithTimeout sets the default timeout for proxy calls
func WithTimeout(timeout time.Duration) Option {
	return config.WithTimeout(timeout)
}

// WithMaxRetries sets the retry cap recorded on scheduled tasks
func WithMaxRetries(maxRetries int) Option {
	return config.WithMaxRetries(maxRetries)
}

// WithHTTPClient sets the HTTP client used for proxy calls
func WithHTTPClient(client *http.Client) Option {
	return config.WithHTTPClient(client)
}

// WithSource sets the platform configuration source
func WithSource(source config.Source) Option {
	return config.WithSource(source)
}

// WithHTTPSource loads platform configurations from the admin backend
func WithHTTPSource(baseURL string) Option {
	return config.WithHTTPSource(baseURL)
}

// WithFileSource loads platform configurations from a YAML file
func WithFileSource(path string) Option {
	return config.WithFileSource(path)
}

// WithPlatform adds a single platform configuration
func WithPlatform(pc *PlatformConfig) Option {
	return config.WithPlatform(pc)
}

// WithPlatforms adds multiple platform configurations
func WithPlatforms(pcs ...*PlatformConfig) Option {
	return config.WithPlatforms(pcs...)
}

// WithLogger sets the logger instance
func WithLogger(l Logger) Option {
	return config.WithLogger(l)
}

// WithLogLevel sets the logging level by name
func WithLogLevel(level string) Option {
	return config.WithLogLevel(level)
}

// WithMemoryTaskStore stores scheduled task records in process memory
func WithMemoryTaskStore() Option {
	return config.WithMemoryTaskStore()
}

// WithRedisTaskStore stores scheduled task records in redis
func WithRedisTaskStore(addr string) Option {
	return config.WithRedisTaskStore(addr)
}

// WithRedisOptions stores scheduled task records in redis with full
// connection and expiry control
func WithRedisOptions(opts RedisOptions) Option {
	return config.WithRedisOptions(opts)
}

// WithTelemetry enables OpenTelemetry export to the given OTLP endpoint
func WithTelemetry(serviceName, endpoint string) Option {
	return config.WithTelemetry(serviceName, endpoint)
}

// WithDefaults applies sensible production defaults
func WithDefaults() Option {
	return config.WithDefaults()
}

// WithTestDefaults applies defaults suitable for testing
func WithTestDefaults() Option {
	return config.WithTestDefaults()
}
