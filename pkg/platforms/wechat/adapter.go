// Package wechat implements the WeChat official-account publishing adapter.
//
// Publishing is a two-step flow: content goes in as a draft, then a
// freepublish call submits the draft. Freepublish completes asynchronously
// on the WeChat side, so a successful publish reports draft status.
package wechat

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
	platformName = "wechat"
	authEndpoint = "https://open.weixin.qq.com/connect/oauth2/authorize"
	authScope    = "snsapi_userinfo"
	authState    = "wechat_auth"

	maxTitleRunes = 64
)

// Adapter publishes article content to WeChat official accounts through
// the proxy
type Adapter struct {
	mu      sync.RWMutex
	cfg     *config.PlatformConfig
	client  *transport.Client
	logger  logger.Logger
	limiter *ratelimit.TokenBucket
	quota   *ratelimit.DailyQuota
}

// New creates a WeChat adapter from the given configuration
func New(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (*Adapter, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrInvalidPlatformConfig, "wechat: nil configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New(errors.ErrInvalidConfig, "wechat: nil transport client")
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

// Platform returns the wechat platform type
func (a *Adapter) Platform() platform.Type {
	return platform.TypeWeChat
}

// Capabilities describes WeChat's content constraints
func (a *Adapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{
		Platform:            platform.TypeWeChat,
		SupportedTypes:      []content.Type{content.TypeArticle, content.TypeText, content.TypeImage},
		MaxTitleLength:      maxTitleRunes,
		SupportsScheduling:  true,
		SupportsUpdate:      true,
		SupportsRefresh:     true,
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
		return errors.New(errors.ErrRateLimitExceeded, "wechat publish rate limit exceeded").
			WithPlatform(platformName)
	}
	if quota != nil && !quota.Allow() {
		return errors.NewQuotaError(platformName)
	}
	return nil
}

// TestConnection reports whether the WeChat proxy endpoint answers
func (a *Adapter) TestConnection(ctx context.Context) bool {
	if err := a.client.Get(ctx, "/platform/wechat/ping", nil, nil); err != nil {
		a.logger.Warn("WeChat connection test failed", "error", err)
		return false
	}
	return true
}

// AuthURL builds the OAuth authorization URL. WeChat spells the client id
// parameter appid and requires the #wechat_redirect fragment.
func (a *Adapter) AuthURL() string {
	cfg := a.snapshot()

	q := url.Values{}
	q.Set("appid", cfg.AppID)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", authScope)
	q.Set("state", authState)
	return authEndpoint + "?" + q.Encode() + "#wechat_redirect"
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
	if err := a.client.Post(ctx, "/platform/wechat/oauth/token", req, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthFailed, "wechat token exchange failed").
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

// RefreshToken obtains fresh tokens from a refresh token
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*platform.TokenPair, error) {
	if refreshToken == "" {
		return nil, errors.New(errors.ErrAuthFailed, "empty refresh token").
			WithPlatform(platformName).WithOperation("refresh_token")
	}
	cfg := a.snapshot()

	req := tokenRequest{
		AppID:        cfg.AppID,
		AppSecret:    cfg.AppSecret,
		RefreshToken: refreshToken,
	}
	var resp tokenResponse
	if err := a.client.Post(ctx, "/platform/wechat/oauth/refresh", req, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrAuthFailed, "wechat token refresh failed").
			WithPlatform(platformName).WithOperation("refresh_token")
	}

	a.storeTokens(resp.AccessToken, resp.RefreshToken)
	return &platform.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		OpenID:       resp.OpenID,
	}, nil
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

// ValidateContent checks content against WeChat's rules
func (a *Adapter) ValidateContent(c *content.Content) *platform.ValidationResult {
	result := platform.NewValidationResult()
	if c == nil {
		result.AddError("content is required")
		return result
	}

	if c.Title == "" {
		result.AddError("title is required")
	} else if utf8.RuneCountInString(c.Title) > maxTitleRunes {
		result.AddError(fmt.Sprintf("title must be %d characters or less", maxTitleRunes))
	}
	if c.Description == "" {
		result.AddError("description is required")
	}
	if c.CoverImageURL == "" {
		result.AddError("cover image is required")
	}
	return result
}

func (a *Adapter) validationFailure(errs []string) *errors.PublishError {
	return errors.Newf(errors.ErrContentInvalid, "content validation failed: %s", strings.Join(errs, "; ")).
		WithPlatform(platformName)
}

// buildDraftPayload assembles the draft submission from content
func (a *Adapter) buildDraftPayload(cfg *config.PlatformConfig, c *content.Content) draftPayload {
	return draftPayload{
		AccessToken: cfg.AccessToken,
		Articles: []article{{
			Title:    c.Title,
			Digest:   c.Description,
			CoverURL: c.CoverImageURL,
			Content:  c.Description,
		}},
	}
}

// PublishContent creates a draft and submits it for freepublish. The
// remote freepublish pipeline completes asynchronously, so a successful
// result carries draft status with the publish id as post id. Failures
// of any kind come back as a failed result, never as an error.
func (a *Adapter) PublishContent(ctx context.Context, params *platform.PublishParams) *platform.PublishResult {
	start := time.Now()

	if err := params.Validate(); err != nil {
		return platform.NewFailure(platform.TypeWeChat, err).WithDuration(time.Since(start))
	}
	if err := a.allow(); err != nil {
		a.logger.Warn("WeChat publish throttled", "error", err)
		return platform.NewFailure(platform.TypeWeChat, err).WithDuration(time.Since(start))
	}
	if v := a.ValidateContent(params.Content); !v.Valid {
		return platform.NewFailure(platform.TypeWeChat, a.validationFailure(v.Errors)).
			WithDuration(time.Since(start))
	}

	cfg := a.snapshot()

	var draft draftResponse
	if err := a.client.Post(ctx, "/platform/wechat/draft", a.buildDraftPayload(cfg, params.Content), &draft); err != nil {
		a.logger.Error("WeChat draft creation failed", "error", err)
		return platform.NewFailure(platform.TypeWeChat, err).WithDuration(time.Since(start))
	}

	submit := freepublishPayload{AccessToken: cfg.AccessToken, MediaID: draft.MediaID}
	var resp freepublishResponse
	if err := a.client.Post(ctx, "/platform/wechat/freepublish", submit, &resp); err != nil {
		a.logger.Error("WeChat freepublish failed", "media_id", draft.MediaID, "error", err)
		return platform.NewFailure(platform.TypeWeChat, err).WithDuration(time.Since(start))
	}

	a.logger.Info("WeChat draft submitted", "media_id", draft.MediaID, "publish_id", resp.PublishID)
	return platform.NewSuccess(platform.TypeWeChat, resp.PublishID).
		WithStatus(platform.StatusDraft).
		WithMetadata("media_id", draft.MediaID).
		WithDuration(time.Since(start))
}

// ScheduleContent registers an article for later publication
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
		draftPayload: a.buildDraftPayload(cfg, params.Content),
		PublishTime:  params.Schedule.PublishAt.Format(time.RFC3339),
		Timezone:     params.Schedule.Timezone,
	}

	var resp scheduleResponse
	if err := a.client.Post(ctx, "/platform/wechat/schedule", payload, &resp); err != nil {
		a.logger.Error("WeChat schedule failed", "error", err)
		return "", err
	}

	a.logger.Info("WeChat content scheduled", "task_id", resp.TaskID, "publish_at", payload.PublishTime)
	return resp.TaskID, nil
}

// CancelScheduled cancels a scheduled publication
func (a *Adapter) CancelScheduled(ctx context.Context, taskID string) bool {
	if taskID == "" {
		return false
	}
	cfg := a.snapshot()
	payload := cancelPayload{AccessToken: cfg.AccessToken, TaskID: taskID}
	if err := a.client.Post(ctx, "/platform/wechat/schedule/cancel", payload, nil); err != nil {
		a.logger.Warn("WeChat schedule cancel failed", "task_id", taskID, "error", err)
		return false
	}
	return true
}

// PublishStatus fetches the remote status of a freepublish submission
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
	if err := a.client.Get(ctx, "/platform/wechat/status", query, &resp); err != nil {
		return nil, err
	}
	return resp.toTaskStatus(postID), nil
}

// engagementKeys maps WeChat stat names to the shared metric keys
var engagementKeys = map[string]string{
	"read_num":    platform.MetricViews,
	"like_num":    platform.MetricLikes,
	"comment_num": platform.MetricComments,
	"share_num":   platform.MetricShares,
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
	if err := a.client.Get(ctx, "/platform/wechat/engagement", query, &raw); err != nil {
		a.logger.Warn("WeChat engagement fetch failed", "post_id", postID, "error", err)
		return metrics
	}
	for rawKey, key := range engagementKeys {
		if v, ok := raw[rawKey]; ok {
			metrics[key] = v
		}
	}
	return metrics
}

// UpdateContent applies a partial update to a published article
func (a *Adapter) UpdateContent(ctx context.Context, postID string, update *content.ContentUpdate) bool {
	if postID == "" || update == nil || update.IsEmpty() {
		return false
	}
	cfg := a.snapshot()

	payload := updatePayload{
		AccessToken: cfg.AccessToken,
		PostID:      postID,
		Title:       update.Title,
		Description: update.Description,
		Tags:        update.Tags,
		CoverURL:    update.CoverImageURL,
	}
	if err := a.client.Put(ctx, "/platform/wechat/content", payload, nil); err != nil {
		a.logger.Warn("WeChat content update failed", "post_id", postID, "error", err)
		return false
	}
	return true
}

// DeleteContent removes a published article
func (a *Adapter) DeleteContent(ctx context.Context, postID string) bool {
	if postID == "" {
		return false
	}
	cfg := a.snapshot()

	query := url.Values{}
	query.Set("post_id", postID)
	query.Set("access_token", cfg.AccessToken)

	if err := a.client.Delete(ctx, "/platform/wechat/content", query, nil); err != nil {
		a.logger.Warn("WeChat content delete failed", "post_id", postID, "error", err)
		return false
	}
	return true
}

// Close releases adapter resources. The transport client is shared and
// closed by its owner.
func (a *Adapter) Close() error {
	return nil
}
