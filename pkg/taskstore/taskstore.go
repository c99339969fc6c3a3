// Package taskstore persists scheduled-publish task state for publishhub.
// It supports in-memory and Redis backends behind one Store interface.
package taskstore

import (
	"context"
	"time"

	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
	"github.com/kart-io/publishhub/pkg/utils/idgen"
)

// ErrClosed is returned when operating on a closed store.
var ErrClosed = errors.New(errors.ErrStoreClosed, "task store is closed")

// Supported store types.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

const defaultMaxRetries = 3

// Task is the local record of one scheduled publication. It is distinct
// from platform.TaskStatus, which reports the remote post state.
type Task struct {
	ID           string             `json:"id"`
	Platform     platform.Type      `json:"platform"`
	ContentID    string             `json:"content_id,omitempty"`
	Content      *content.Content   `json:"content,omitempty"`
	PublishAt    time.Time          `json:"publish_at"`
	RemoteTaskID string             `json:"remote_task_id,omitempty"`
	State        platform.TaskState `json:"state"`
	Error        string             `json:"error,omitempty"`
	RetryCount   int                `json:"retry_count"`
	MaxRetries   int                `json:"max_retries"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewTask creates a pending task for one platform
func NewTask(p platform.Type, c *content.Content, publishAt time.Time) *Task {
	now := time.Now()
	task := &Task{
		ID:         idgen.GenerateTaskID(),
		Platform:   p,
		PublishAt:  publishAt,
		State:      platform.TaskPending,
		MaxRetries: defaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c != nil {
		task.Content = c
		task.ContentID = c.ID
	}
	return task
}

// Clone returns a shallow copy. Content is shared; stores hand out clones
// so callers cannot mutate stored task state in place.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// Filter selects tasks in List. Zero fields match everything.
type Filter struct {
	Platform  platform.Type
	States    []platform.TaskState
	ContentID string
	Limit     int
}

func (f Filter) matches(t *Task) bool {
	if f.Platform != "" && t.Platform != f.Platform {
		return false
	}
	if f.ContentID != "" && t.ContentID != f.ContentID {
		return false
	}
	if len(f.States) > 0 {
		found := false
		for _, s := range f.States {
			if t.State == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store persists scheduled-publish tasks
type Store interface {
	// Save inserts or replaces a task.
	Save(ctx context.Context, task *Task) error

	// Get returns a copy of the task with the given id.
	Get(ctx context.Context, id string) (*Task, error)

	// List returns copies of the tasks matching the filter, oldest first.
	List(ctx context.Context, filter Filter) ([]*Task, error)

	// SetState transitions a task and records an error message. Leaving a
	// terminal state is refused.
	SetState(ctx context.Context, id string, state platform.TaskState, errMsg string) error

	// MarkRetry increments the retry counter. It reports false without
	// incrementing once the task has used up its retries.
	MarkRetry(ctx context.Context, id string) (bool, error)

	// Delete removes a task.
	Delete(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}

// Config selects and configures the store backend
type Config struct {
	Type  string        `json:"type" yaml:"type"`
	Redis *RedisOptions `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// RedisOptions contains Redis-specific configuration
type RedisOptions struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Password     string        `json:"password,omitempty" yaml:"password,omitempty"`
	DB           int           `json:"db" yaml:"db"`
	DialTimeout  time.Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
	PoolSize     int           `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
	KeyPrefix    string        `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`

	// TerminalTTL expires tasks in a terminal state after the given
	// duration. Zero keeps them forever.
	TerminalTTL time.Duration `json:"terminal_ttl,omitempty" yaml:"terminal_ttl,omitempty"`
}

// New creates a store from the configuration. An empty type means memory.
func New(cfg Config, log logger.Logger) (Store, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return NewMemoryStore(log), nil
	case TypeRedis:
		return NewRedisStore(cfg.Redis, log)
	default:
		return nil, errors.Newf(errors.ErrInvalidConfig, "unknown task store type %q", cfg.Type)
	}
}

// refuseTerminalExit guards SetState transitions shared by all backends
func refuseTerminalExit(task *Task, next platform.TaskState) error {
	if task.State.IsTerminal() && task.State != next {
		return errors.Newf(errors.ErrInvalidStateTransition,
			"task %s: cannot leave terminal state %s", task.ID, task.State)
	}
	return nil
}
