package platform

import (
	"time"

	"github.com/kart-io/publishhub/pkg/errors"
)

// PublishStatus is the platform-side state of a published post
type PublishStatus string

const (
	StatusPublished PublishStatus = "published"
	StatusPending   PublishStatus = "pending"
	StatusFailed    PublishStatus = "failed"

	// StatusDraft marks content accepted by the platform but still in
	// its asynchronous publication pipeline, wechat's freepublish works
	// this way.
	StatusDraft PublishStatus = "draft"
)

// IsTerminal reports whether the platform will not change this status anymore
func (s PublishStatus) IsTerminal() bool {
	return s == StatusPublished || s == StatusFailed
}

// PublishResult is the outcome of one publish attempt on one platform.
// A failed attempt is a result with Success=false, never a Go error.
type PublishResult struct {
	Platform  Type             `json:"platform"`
	Success   bool             `json:"success"`
	PostID    string           `json:"post_id,omitempty"`
	URL       string           `json:"url,omitempty"`
	Status    PublishStatus    `json:"status"`
	Error     string           `json:"error,omitempty"`
	ErrorCode errors.ErrorCode `json:"error_code,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Duration  time.Duration    `json:"duration,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewSuccess creates a successful result with status published
func NewSuccess(platform Type, postID string) *PublishResult {
	return &PublishResult{
		Platform:  platform,
		Success:   true,
		PostID:    postID,
		Status:    StatusPublished,
		Timestamp: time.Now(),
	}
}

// NewFailure creates a failed result carrying the error's code and message
func NewFailure(platform Type, err error) *PublishResult {
	r := &PublishResult{
		Platform:  platform,
		Success:   false,
		Status:    StatusFailed,
		Timestamp: time.Now(),
	}
	if err != nil {
		r.Error = errors.GetErrorMessage(err)
		r.ErrorCode = errors.GetErrorCode(err)
	}
	return r
}

// WithStatus overrides the result status
func (r *PublishResult) WithStatus(status PublishStatus) *PublishResult {
	r.Status = status
	return r
}

// WithURL records the published content URL
func (r *PublishResult) WithURL(url string) *PublishResult {
	r.URL = url
	return r
}

// WithDuration records how long the attempt took
func (r *PublishResult) WithDuration(d time.Duration) *PublishResult {
	r.Duration = d
	return r
}

// WithMetadata attaches a metadata entry
func (r *PublishResult) WithMetadata(key string, value interface{}) *PublishResult {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
	return r
}

// TaskStatus is the platform-side progress record for one publish task,
// polled by post id. RetryCount counts the platform's own retries and
// never exceeds MaxRetries; nothing may retry past the cap.
type TaskStatus struct {
	TaskID     string         `json:"task_id,omitempty"`
	PostID     string         `json:"post_id"`
	ContentID  string         `json:"content_id,omitempty"`
	Platform   Type           `json:"platform"`
	State      TaskState      `json:"state"`
	Progress   int            `json:"progress"`
	Result     *PublishResult `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TaskState is the local lifecycle state of a scheduled publish task
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskProcessing TaskState = "processing"
	TaskPublished  TaskState = "published"
	TaskFailed     TaskState = "failed"
	TaskCancelled  TaskState = "cancelled"
)

// taskTransitions lists the legal state changes. Published, failed, and
// cancelled are terminal, a task never leaves them.
var taskTransitions = map[TaskState][]TaskState{
	TaskPending:    {TaskProcessing, TaskCancelled},
	TaskProcessing: {TaskPublished, TaskFailed},
}

// CanTransition reports whether moving from s to next is legal
func (s TaskState) CanTransition(next TaskState) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the task reached a final state
func (s TaskState) IsTerminal() bool {
	return s == TaskPublished || s == TaskFailed || s == TaskCancelled
}

// Normalized engagement metric keys. Adapters translate each platform's
// raw field names to these; a platform that lacks a metric simply omits
// the key.
const (
	MetricViews     = "views"
	MetricLikes     = "likes"
	MetricComments  = "comments"
	MetricShares    = "shares"
	MetricFavorites = "favorites"

	// MetricCoins is Bilibili's coin tip count, reported by no other platform.
	MetricCoins = "coins"
)

// EngagementSnapshot is one platform's engagement metrics for one post
type EngagementSnapshot struct {
	Platform  Type             `json:"platform"`
	PostID    string           `json:"post_id"`
	Metrics   map[string]int64 `json:"metrics"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Metric returns the named metric, zero when the platform did not report it
func (s *EngagementSnapshot) Metric(name string) int64 {
	if s == nil || s.Metrics == nil {
		return 0
	}
	return s.Metrics[name]
}
