package config

import (
	"context"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/transport"
)

// Source loads platform configurations at manager construction time.
// The admin backend serves them over HTTP in production; file and static
// sources exist for tooling and tests.
type Source interface {
	Load(ctx context.Context) ([]*PlatformConfig, error)
}

// HTTPSource loads platform configurations from the admin backend
type HTTPSource struct {
	client *transport.Client
	path   string
}

// NewHTTPSource creates a source reading from the config endpoint at baseURL
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		client: transport.New(baseURL),
		path:   "/platform/configs",
	}
}

// NewHTTPSourceWithClient creates a source reusing an existing transport client
func NewHTTPSourceWithClient(client *transport.Client, path string) *HTTPSource {
	if path == "" {
		path = "/platform/configs"
	}
	return &HTTPSource{client: client, path: path}
}

// Load fetches the platform configurations
func (s *HTTPSource) Load(ctx context.Context) ([]*PlatformConfig, error) {
	var configs []*PlatformConfig
	if err := s.client.Get(ctx, s.path, nil, &configs); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigFetchFailed,
			"loading platform configurations")
	}
	return configs, nil
}

// FileSource loads platform configurations from a YAML file
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from the given YAML file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the configuration file
func (s *FileSource) Load(ctx context.Context) ([]*PlatformConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigFetchFailed,
			"reading config file %s", s.path)
	}

	var doc struct {
		Platforms []*PlatformConfig `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigFetchFailed,
			"parsing config file %s", s.path)
	}
	return doc.Platforms, nil
}

// StaticSource serves a fixed set of platform configurations
type StaticSource struct {
	configs []*PlatformConfig
}

// NewStaticSource creates a source returning the given configurations
func NewStaticSource(configs ...*PlatformConfig) *StaticSource {
	return &StaticSource{configs: configs}
}

// Load returns the configured set
func (s *StaticSource) Load(ctx context.Context) ([]*PlatformConfig, error) {
	return s.configs, nil
}
