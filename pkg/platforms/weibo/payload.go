package weibo

import (
	"time"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/platform"
)

type tokenRequest struct {
	AppID       string `json:"app_id"`
	AppSecret   string `json:"app_secret"`
	Code        string `json:"code,omitempty"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	OpenID       string `json:"open_id"`
}

type publishPayload struct {
	AccessToken string   `json:"access_token"`
	Status      string   `json:"status"`
	PicURLs     []string `json:"pic_urls,omitempty"`
}

type publishResponse struct {
	IDStr string `json:"idstr"`
}

type schedulePayload struct {
	publishPayload
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
		Platform:   platform.TypeWeibo,
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
		status.Result = platform.NewSuccess(platform.TypeWeibo, postID).WithURL(r.URL)
	case platform.TaskFailed:
		status.Result = platform.NewFailure(platform.TypeWeibo,
			errors.New(errors.ErrPlatformRejected, r.Reason))
	}
	return status
}

func parseTaskState(s string) platform.TaskState {
	switch s {
	case "published", "success":
		return platform.TaskPublished
	case "failed", "rejected":
		return platform.TaskFailed
	case "cancelled", "canceled":
		return platform.TaskCancelled
	case "processing", "publishing":
		return platform.TaskProcessing
	default:
		return platform.TaskPending
	}
}
