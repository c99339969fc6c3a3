// Package config provides the core configuration system for publishhub
package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kart-io/publishhub/pkg/errors"
)

var validate = validator.New()

// PlatformConfig holds one platform's credentials and publishing policy.
// Instances normally arrive from the remote config endpoint at manager
// construction; each adapter keeps its own copy afterwards.
type PlatformConfig struct {
	// Platform is the platform name ("douyin", "wechat", ...). Kept as a
	// plain string here because remote configs may name platforms this
	// build has no adapter for; the manager decides what to skip.
	Platform string `json:"platform" yaml:"platform" validate:"required"`

	AppID     string `json:"app_id" yaml:"app_id" validate:"required"`
	AppSecret string `json:"app_secret,omitempty" yaml:"app_secret,omitempty"`

	AccessToken  string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty" yaml:"refresh_token,omitempty"`

	// RedirectURI is the OAuth callback registered with the platform.
	RedirectURI string `json:"redirect_uri,omitempty" yaml:"redirect_uri,omitempty" validate:"omitempty,url"`

	Enabled  bool `json:"enabled" yaml:"enabled"`
	Priority int  `json:"priority,omitempty" yaml:"priority,omitempty" validate:"gte=0"`

	// RateLimit caps publishes per minute, zero means unlimited.
	RateLimit int `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" validate:"gte=0"`
	// DailyQuota caps publishes per calendar day, zero means unlimited.
	DailyQuota int `json:"daily_quota,omitempty" yaml:"daily_quota,omitempty" validate:"gte=0"`

	// Connection settings
	Timeout    time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"gte=0"`
}

// Validate validates the platform configuration
func (c *PlatformConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrapf(err, errors.ErrInvalidPlatformConfig,
			"invalid configuration for platform %q", c.Platform)
	}
	if c.Timeout < 0 {
		return errors.Newf(errors.ErrInvalidPlatformConfig,
			"timeout cannot be negative for platform %q", c.Platform)
	}
	return nil
}

// Clone returns a copy of the configuration
func (c *PlatformConfig) Clone() *PlatformConfig {
	clone := *c
	return &clone
}

// Merge shallow-merges patch into c: non-zero patch fields overwrite the
// held values. The Enabled flag is fixed at registration and is left
// unchanged, an adapter only exists for an enabled config.
func (c *PlatformConfig) Merge(patch *PlatformConfig) {
	if patch == nil {
		return
	}
	if patch.AppID != "" {
		c.AppID = patch.AppID
	}
	if patch.AppSecret != "" {
		c.AppSecret = patch.AppSecret
	}
	if patch.AccessToken != "" {
		c.AccessToken = patch.AccessToken
	}
	if patch.RefreshToken != "" {
		c.RefreshToken = patch.RefreshToken
	}
	if patch.RedirectURI != "" {
		c.RedirectURI = patch.RedirectURI
	}
	if patch.Priority != 0 {
		c.Priority = patch.Priority
	}
	if patch.RateLimit != 0 {
		c.RateLimit = patch.RateLimit
	}
	if patch.DailyQuota != 0 {
		c.DailyQuota = patch.DailyQuota
	}
	if patch.Timeout != 0 {
		c.Timeout = patch.Timeout
	}
	if patch.MaxRetries != 0 {
		c.MaxRetries = patch.MaxRetries
	}
}

// NewPlatformConfig creates an enabled platform configuration with defaults
func NewPlatformConfig(platform, appID, appSecret string) *PlatformConfig {
	return &PlatformConfig{
		Platform:   platform,
		AppID:      appID,
		AppSecret:  appSecret,
		Enabled:    true,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}
