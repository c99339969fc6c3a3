package platform

import (
	"context"

	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/transport"
)

// Adapter is the unified publishing interface every platform implements.
//
// Error handling is deliberately uneven across operations and callers
// depend on it: PublishContent absorbs every failure into the returned
// result, ScheduleContent and the token operations surface errors,
// CancelScheduled, UpdateContent and DeleteContent collapse to a bool,
// and ContentEngagement degrades to an empty map.
type Adapter interface {
	// Platform returns the platform this adapter publishes to.
	Platform() Type

	// Capabilities describes the platform's content constraints.
	Capabilities() Capabilities

	// Configure shallow-merges cfg into the held configuration.
	Configure(cfg *config.PlatformConfig)

	// Config returns a copy of the held configuration.
	Config() *config.PlatformConfig

	// TestConnection reports whether the platform answers. It never
	// returns an error, a broken connection is simply false.
	TestConnection(ctx context.Context) bool

	// AuthURL builds the OAuth authorization URL from the held
	// configuration without any network activity.
	AuthURL() string

	// ExchangeToken trades an OAuth callback code for tokens.
	ExchangeToken(ctx context.Context, code string) (*TokenPair, error)

	// RefreshToken obtains fresh tokens from a refresh token.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	// ValidateContent checks content against platform rules without
	// touching the network. All violations are reported, not just the
	// first one.
	ValidateContent(c *content.Content) *ValidationResult

	// PublishContent publishes immediately. It never fails at the Go
	// level: validation errors, transport errors and panics all come
	// back as a failed result.
	PublishContent(ctx context.Context, params *PublishParams) *PublishResult

	// ScheduleContent registers content for later publication and
	// returns the platform task id.
	ScheduleContent(ctx context.Context, params *PublishParams) (string, error)

	// CancelScheduled cancels a scheduled task, false when the task is
	// unknown or already running.
	CancelScheduled(ctx context.Context, taskID string) bool

	// PublishStatus fetches the platform-side status of a published post.
	PublishStatus(ctx context.Context, postID string) (*TaskStatus, error)

	// ContentEngagement fetches engagement metrics under normalized
	// keys. On any failure the map is empty, never nil.
	ContentEngagement(ctx context.Context, postID string) map[string]int64

	// UpdateContent applies a partial update to a published post.
	UpdateContent(ctx context.Context, postID string, update *content.ContentUpdate) bool

	// DeleteContent removes a published post.
	DeleteContent(ctx context.Context, postID string) bool

	// Close releases adapter resources.
	Close() error
}

// Capabilities describes platform constraints and feature support
type Capabilities struct {
	Platform            Type           `json:"platform"`
	SupportedTypes      []content.Type `json:"supported_types"`
	MaxTitleLength      int            `json:"max_title_length,omitempty"`
	MaxDescription      int            `json:"max_description,omitempty"`
	MaxTags             int            `json:"max_tags,omitempty"`
	MaxImages           int            `json:"max_images,omitempty"`
	MaxVideoDuration    int            `json:"max_video_duration,omitempty"`
	SupportsScheduling  bool           `json:"supports_scheduling"`
	SupportsUpdate      bool           `json:"supports_update"`
	SupportsRefresh     bool           `json:"supports_refresh"`
	RequiredCredentials []string       `json:"required_credentials,omitempty"`
}

// Factory builds an adapter from a platform configuration
type Factory func(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (Adapter, error)
