package wechat

import (
	"time"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/platform"
)

type tokenRequest struct {
	AppID        string `json:"app_id"`
	AppSecret    string `json:"app_secret"`
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	OpenID       string `json:"open_id"`
}

// article is one entry of a draft submission. WeChat drafts take a list
// but the adapter always submits exactly one.
type article struct {
	Title    string `json:"title"`
	Digest   string `json:"digest"`
	CoverURL string `json:"cover_url"`
	Content  string `json:"content"`
}

type draftPayload struct {
	AccessToken string    `json:"access_token"`
	Articles    []article `json:"articles"`
}

type draftResponse struct {
	MediaID string `json:"media_id"`
}

type freepublishPayload struct {
	AccessToken string `json:"access_token"`
	MediaID     string `json:"media_id"`
}

type freepublishResponse struct {
	PublishID string `json:"publish_id"`
}

type schedulePayload struct {
	draftPayload
	PublishTime string `json:"publish_time"`
	Timezone    string `json:"timezone,omitempty"`
}

type scheduleResponse struct {
	TaskID string `json:"task_id"`
}

type cancelPayload struct {
	AccessToken string `json:"access_token"`
	TaskID      string `json:"task_id"`
}

type updatePayload struct {
	AccessToken string   `json:"access_token"`
	PostID      string   `json:"post_id"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CoverURL    *string  `json:"cover_url,omitempty"`
}

type statusResponse struct {
	TaskID     string `json:"task_id,omitempty"`
	ContentID  string `json:"content_id,omitempty"`
	Status     string `json:"status"`
	Progress   int    `json:"progress,omitempty"`
	URL        string `json:"url,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RetryCount int    `json:"retry_count,omitempty"`
	MaxRetries int    `json:"max_retries,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (r *statusResponse) toTaskStatus(postID string) *platform.TaskStatus {
	status := &platform.TaskStatus{
		TaskID:     r.TaskID,
		PostID:     postID,
		ContentID:  r.ContentID,
		Platform:   platform.TypeWeChat,
		State:      parseTaskState(r.Status),
		Progress:   r.Progress,
		Error:      r.Reason,
		RetryCount: r.RetryCount,
		MaxRetries: r.MaxRetries,
		UpdatedAt:  time.Now(),
	}
	if r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			status.CreatedAt = t
		}
	}
	switch status.State {
	case platform.TaskPublished:
		status.Progress = 100
		status.Result = platform.NewSuccess(platform.TypeWeChat, postID).WithURL(r.URL)
	case platform.TaskFailed:
		status.Result = platform.NewFailure(platform.TypeWeChat,
			errors.New(errors.ErrPlatformRejected, r.Reason))
	}
	return status
}

// parseTaskState maps proxy status strings to task states. A draft still
// sits in wechat's asynchronous freepublish pipeline, so it counts as
// processing.
func parseTaskState(s string) platform.TaskState {
	switch s {
	case "published", "success":
		return platform.TaskPublished
	case "failed", "rejected":
		return platform.TaskFailed
	case "cancelled", "canceled":
		return platform.TaskCancelled
	case "processing", "publishing", "draft":
		return platform.TaskProcessing
	default:
		return platform.TaskPending
	}
}
