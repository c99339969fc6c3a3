// Wire payloads for the Douyin proxy endpoints
package douyin

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

type publishPayload struct {
	AccessToken  string `json:"access_token"`
	VideoURL     string `json:"video_url"`
	Text         string `json:"text"`
	CoverURL     string `json:"cover_url,omitempty"`
	PrivacyLevel string `json:"privacy_level,omitempty"`
	POIID        string `json:"poi_id,omitempty"`
}

type publishResponse struct {
	ItemID   string `json:"item_id"`
	ShareURL string `json:"share_url"`
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
	ts := &platform.TaskStatus{
		TaskID:     r.TaskID,
		PostID:     postID,
		ContentID:  r.ContentID,
		Platform:   platform.TypeDouyin,
		State:      parseTaskState(r.Status),
		Progress:   r.Progress,
		Error:      r.Reason,
		RetryCount: r.RetryCount,
		MaxRetries: r.MaxRetries,
		UpdatedAt:  time.Now(),
	}
	if r.CreatedAt != "" {
		if at, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			ts.CreatedAt = at
		}
	}
	switch ts.State {
	case platform.TaskPublished:
		ts.Progress = 100
		ts.Result = platform.NewSuccess(platform.TypeDouyin, postID).WithURL(r.URL)
	case platform.TaskFailed:
		ts.Result = platform.NewFailure(platform.TypeDouyin,
			errors.New(errors.ErrPlatformRejected, r.Reason))
	}
	return ts
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
