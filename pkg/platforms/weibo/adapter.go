// Package weibo implements the Weibo status publishing adapter.
//
// A status is one text blob built from title and description, optionally
// carrying up to nine pictures. Weibo issues long-lived access tokens
// without refresh tokens and forbids editing published statuses, so
// RefreshToken and UpdateContent are permanent no-ops here.
package weibo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
	"github.com/kart-io/publishhub/pkg/transport"
	"github.com/kart-io/publishhub/pkg/utils/ratelimit"
)

const (
	platformName = "weibo"
	authEndpoint = "https://api.weibo.com/oauth2/authorize"
	authState    = "weibo_auth"

	maxStatusRunes = 2000
	maxImages      = 9
)

// ErrRefreshNotSupported is returned by RefreshToken unconditionally.
// Weibo tokens are long-lived and re-authorization is the only renewal.
var ErrRefreshNotSupported = errors.NewNotSupportedError(platformName, "token refresh")

// Adapter publishes statuses to Weibo through the proxy
type Adapter struct {
	mu      sync.RWMutex
	cfg     *config.PlatformConfig
	client  *transport.Client
	logger  logger.Logger
	limiter *ratelimit.TokenBucket
	quota   *ratelimit.DailyQuota
}

// New creates a Weibo adapter from the given configuration
func New(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrInvalidPlatformConfig, "weibo: nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New(errors.ErrInvalidConfig, "weibo: nil transport client")
	}
	if log == nil {
		log = logger.New()
	}

	a := &Adapter{
		cfg:    cfg.Clone(),
		client: client,
		logger: log,
	}
	a.rebuildLimits()
	return a, nil
}

// rebuildLimits recreates limiter and quota from the held config.
// Callers must hold the write lock, except during construction.
func (a *Adapter) rebuildLimits() {
	if a.cfg.RateLimit > 0 {
		a.limiter = ratelimit.NewTokenBucket(ratelimit.PerMinute(float64(a.cfg.RateLimit)), a.cfg.RateLimit)
	} else {
		a.limiter = nil
	}
	a.quota = ratelimit.NewDailyQuota(a.cfg.DailyQuota)
}

// Platform returns the weibo platform type
func (a *Adapter) Platform() platform.Type {
	return platform.TypeWeibo
}

// Capabilities describes Weibo's content constraints
func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{
		Platform:            platform.TypeWeibo,
		SupportedTypes:      []content.Type{content.TypeText, content.TypeImage},
		MaxDescription:      maxStatusRunes,
		MaxImages:           maxImages,
		SupportsScheduling:  true,
		SupportsUpdate:      false,
		SupportsRefresh:     false,
		RequiredCredentials: []string{"app_id", "app_secret"},
	}
}

// Configure shallow-merges cfg into the held configuration
func (a *Adapter) Configure(cfg *config.PlatformConfig) {
	if cfg == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	oldRate, oldQuota := a.cfg.RateLimit, a.cfg.DailyQuota
	a.cfg.Merge(cfg)
	if a.cfg.RateLimit != oldRate || a.cfg.DailyQuota != oldQuota {
		a.rebuildLimits()
	}
}

// Config returns a copy of the held configuration
func (a *Adapter) Config() *config.PlatformConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Clone()
}

func (a *Adapter) snapshot() *config.PlatformConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Clone()
}

// allow consumes rate limit and daily quota, in that order
func (a *Adapter) allow() error {
	a.mu.RLock()
	limiter, quota := a.limiter, a.quota
	a.mu.RUnlock()

	if limiter != nil && !limiter.Allow() {
		return errors.New(errors.ErrRateLimitExceeded, "weibo publish rate limit exceeded").
			WithPlatform(platformName)
	}
	if quota != nil && !quota.Allow() {
		return errors.NewQuotaError(platformName)
	}
	return nil
}

// TestConnection reports whether the Weibo proxy endpoint answers
func (a *Adapter) TestConnection(ctx context.Context) bool {
	if err := a.client.Get(ctx, "/platform/weibo/ping", nil, nil); err != nil {
		a.logger.Warn("Weibo connection test failed", "error", err)
		return false
	}
	return true
}

// AuthURL builds the OAuth authorization URL
func (a *Adapter) AuthURL() string {
	cfg := a.snapshot()

	q := url.Values{}
	q.Set("client_id", cfg.AppID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("state", authState)
	return authEndpoint + "?" + q.Encode()
}

// ExchangeToken trades an authorization code for tokens
func (a *Adapter) ExchangeToken(ctx context.Context, code string) (*platform.TokenPair, error) {
	if code == "" {
		return nil, errors.New(errors.ErrAuthFailed, "empty authorization code").
			WithPlatform(platformName).WithOperation("exchange_token")
	}
	cfg := a.snapshot()

	req := tokenRequest{
		AppID:       cfg.AppID,
		AppSecret:   cfg.AppSecret,
		Code:        code,
		RedirectURI: cfg.RedirectURI,
	}
	var resp tokenResponse
	if err := a.client.Post(ctx, "/platform/weibo/oauth/token", req, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthFailed, "weibo token exchange failed").
			WithPlatform(platformName).WithOperation("exchange_token")
	}

	a.storeTokens(resp.AccessToken, resp.RefreshToken)
	return &platform.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		OpenID:       resp.OpenID,
	}, nil
}

// RefreshToken always fails. Weibo does not issue refresh tokens.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*platform.TokenPair, error) {
	return nil, ErrRefreshNotSupported
}

func (a *Adapter) storeTokens(accessToken, refreshToken string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if accessToken != "" {
		a.cfg.AccessToken = accessToken
	}
	if refreshToken != "" {
		a.cfg.RefreshToken = refreshToken
	}
}

// statusText builds the status body from title and description
func statusText(c *content.Content) string {
	return strings.TrimSpace(c.Title + "\n" + c.Description)
}

// ValidateContent checks content against Weibo's rules. Title and
// description merge into one status body, so the limits apply to the
// combined text.
func (a *Adapter) ValidateContent(c *content.Content) *platform.ValidationResult {
	result := platform.NewValidationResult()
	if c == nil {
		result.AddError("content is required")
		return result
	}

	text := statusText(c)
	if text == "" {
		result.AddError("status text is required")
	} else if utf8.RuneCountInString(text) > maxStatusRunes {
		result.AddError(fmt.Sprintf("status text must be %d characters or less", maxStatusRunes))
	}
	if len(c.Images) > maxImages {
		result.AddError(fmt.Sprintf("at most %d images are allowed", maxImages))
	}
	return result
}

func (a *Adapter) validationFailure(errs []string) *errors.PublishError {
	return errors.Newf(errors.ErrContentInvalid, "content validation failed: %s", strings.Join(errs, "; ")).
		WithPlatform(platformName)
}

// buildPublishPayload assembles the status payload from content
func (a *Adapter) buildPublishPayload(cfg *config.PlatformConfig, c *content.Content) publishPayload {
	return publishPayload{
		AccessToken: cfg.AccessToken,
		Status:      statusText(c),
		PicURLs:     c.Images,
	}
}

// PublishContent posts a status immediately. Failures of any kind come
// back as a failed result, never as an error.
func (a *Adapter) PublishContent(ctx context.Context, params *platform.PublishParams) *platform.PublishResult {
	start := time.Now()

	if err := params.Validate(); err != nil {
		return platform.NewFailure(platform.TypeWeibo, err).WithDuration(time.Since(start))
	}
	if err := a.allow(); err != nil {
		a.logger.Warn("Weibo publish throttled", "error", err)
		return platform.NewFailure(platform.TypeWeibo, err).WithDuration(time.Since(start))
	}
	if v := a.ValidateContent(params.Content); !v.Valid {
		return platform.NewFailure(platform.TypeWeibo, a.validationFailure(v.Errors)).
			WithDuration(time.Since(start))
	}

	cfg := a.snapshot()
	payload := a.buildPublishPayload(cfg, params.Content)

	var resp publishResponse
	if err := a.client.Post(ctx, "/platform/weibo/publish", payload, &resp); err != nil {
		a.logger.Error("Weibo publish failed", "error", err)
		return platform.NewFailure(platform.TypeWeibo, err).WithDuration(time.Since(start))
	}

	a.logger.Info("Weibo status published", "idstr", resp.IDStr)
	return platform.NewSuccess(platform.TypeWeibo, resp.IDStr).
		WithDuration(time.Since(start))
}

// ScheduleContent registers a status for later publication
func (a *Adapter) ScheduleContent(ctx context.Context, params *platform.PublishParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	if params.Schedule == nil || params.Schedule.PublishAt == nil {
		return "", errors.New(errors.ErrInvalidConfig, "schedule requires a publish time").
			WithPlatform(platformName).WithOperation("schedule")
	}
	if v := a.ValidateContent(params.Content); !v.Valid {
		return "", a.validationFailure(v.Errors)
	}

	cfg := a.snapshot()
	payload := schedulePayload{
		publishPayload: a.buildPublishPayload(cfg, params.Content),
		PublishTime:    params.Schedule.PublishAt.Format(time.RFC3339),
		Timezone:       params.Schedule.Timezone,
	}

	var resp scheduleResponse
	if err := a.client.Post(ctx, "/platform/weibo/schedule", payload, &resp); err != nil {
		a.logger.Error("Weibo schedule failed", "error", err)
		return "", err
	}

	a.logger.Info("Weibo status scheduled", "task_id", resp.TaskID, "publish_at", payload.PublishTime)
	return resp.TaskID, nil
}

// CancelScheduled cancels a scheduled publication
func (a *Adapter) CancelScheduled(ctx context.Context, taskID string) bool {
	if taskID == "" {
		return false
	}
	cfg := a.snapshot()
	payload := cancelPayload{AccessToken: cfg.AccessToken, TaskID: taskID}
	if err := a.client.Post(ctx, "/platform/weibo/schedule/cancel", payload, nil); err != nil {
		a.logger.Warn("Weibo schedule cancel failed", "task_id", taskID, "error", err)
		return false
	}
	return true
}

// PublishStatus fetches the platform-side status of a published post
func (a *Adapter) PublishStatus(ctx context.Context, postID string) (*platform.TaskStatus, error) {
	if postID == "" {
		return nil, errors.New(errors.ErrTaskNotFound, "empty post id").
			WithPlatform(platformName).WithOperation("publish_status")
	}
	cfg := a.snapshot()

	query := url.Values{}
	query.Set("post_id", postID)
	query.Set("access_token", cfg.AccessToken)

	var resp statusResponse
	if err := a.client.Get(ctx, "/platform/weibo/status", query, &resp); err != nil {
		return nil, err
	}
	return resp.toTaskStatus(postID), nil
}

// engagementKeys maps Weibo stat names to the shared metric keys.
// Weibo reports no view count, so the map stays partial.
var engagementKeys = map[string]string{
	"reposts_count":   platform.MetricShares,
	"comments_count":  platform.MetricComments,
	"attitudes_count": platform.MetricLikes,
}

// ContentEngagement fetches engagement metrics, empty map on any failure
func (a *Adapter) ContentEngagement(ctx context.Context, postID string) map[string]int64 {
	metrics := make(map[string]int64)
	if postID == "" {
		return metrics
	}
	cfg := a.snapshot()

	query := url.Values{}
	query.Set("post_id", postID)
	query.Set("access_token", cfg.AccessToken)

	var raw map[string]int64
	if err := a.client.Get(ctx, "/platform/weibo/engagement", query, &raw); err != nil {
		a.logger.Warn("Weibo engagement fetch failed", "post_id", postID, "error", err)
		return metrics
	}
	for rawKey, key := range engagementKeys {
		if v, ok := raw[rawKey]; ok {
			metrics[key] = v
		}
	}
	return metrics
}

// UpdateContent always declines. Weibo forbids editing published statuses.
func (a *Adapter) UpdateContent(ctx context.Context, postID string, update *content.ContentUpdate) bool {
	a.logger.Debug("Weibo does not support content updates", "post_id", postID)
	return false
}

// DeleteContent removes a published status
func (a *Adapter) DeleteContent(ctx context.Context, postID string) bool {
	if postID == "" {
		return false
	}
	cfg := a.snapshot()

	query := url.Values{}
	query.Set("post_id", postID)
	query.Set("access_token", cfg.AccessToken)

	if err := a.client.Delete(ctx, "/platform/weibo/content", query, nil); err != nil {
		a.logger.Warn("Weibo content delete failed", "post_id", postID, "error", err)
		return false
	}
	return true
}

// Close releases adapter resources. The transport client is shared and
// closed by its owner.
func (a *Adapter) Close() error {
	return nil
}
