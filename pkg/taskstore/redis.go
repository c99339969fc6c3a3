package taskstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
)

const defaultKeyPrefix = "publishhub:"

// redisStore keeps one JSON value per task plus a set of task ids. Tasks
// in terminal states can expire; List skips ids whose value is gone.
type redisStore struct {
	client      *redis.Client
	keyPrefix   string
	indexKey    string
	terminalTTL time.Duration
	closed      int32
	logger      logger.Logger
}

// NewRedisStore creates a Redis-backed task store and verifies the
// connection with a ping
func NewRedisStore(opts *RedisOptions, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Discard
	}
	if opts == nil || opts.Addr == "" {
		return nil, errors.New(errors.ErrInvalidConfig, "redis task store requires an address")
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	dialTimeout := opts.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	readTimeout := opts.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 3 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		PoolSize:     opts.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.ErrConnectionFailed, "redis task store connection failed")
	}

	log.Info("Redis task store connected", "addr", opts.Addr, "key_prefix", prefix)
	return &redisStore{
		client:      client,
		keyPrefix:   prefix,
		indexKey:    prefix + "tasks",
		terminalTTL: opts.TerminalTTL,
		logger:      log,
	}, nil
}

func (s *redisStore) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

func (s *redisStore) taskKey(id string) string {
	return s.keyPrefix + "task:" + id
}

func (s *redisStore) write(ctx context.Context, task *Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "task serialization failed")
	}

	var ttl time.Duration
	if s.terminalTTL > 0 && task.State.IsTerminal() {
		ttl = s.terminalTTL
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.taskKey(task.ID), data, ttl)
	pipe.SAdd(ctx, s.indexKey, task.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "task write failed")
	}
	return nil
}

func (s *redisStore) read(ctx context.Context, id string) (*Task, error) {
	data, err := s.client.Get(ctx, s.taskKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Newf(errors.ErrTaskNotFound, "task %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrInternal, "task read failed")
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "task deserialization failed")
	}
	return &task, nil
}

// Save inserts or replaces a task
func (s *redisStore) Save(ctx context.Context, task *Task) error {
	if s.isClosed() {
		return ErrClosed
	}
	if task == nil || task.ID == "" {
		return errors.New(errors.ErrInvalidConfig, "task requires an id")
	}

	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	if err := s.write(ctx, task); err != nil {
		return err
	}
	s.logger.Debug("Task saved", "task_id", task.ID, "platform", task.Platform, "state", task.State)
	return nil
}

// Get returns the task with the given id
func (s *redisStore) Get(ctx context.Context, id string) (*Task, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	return s.read(ctx, id)
}

// List returns the tasks matching the filter, oldest first. Ids whose
// value expired are dropped from the index as a side effect.
func (s *redisStore) List(ctx context.Context, filter Filter) ([]*Task, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.indexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "task index read failed")
	}

	matched := make([]*Task, 0, len(ids))
	var expired []interface{}
	for _, id := range ids {
		task, err := s.read(ctx, id)
		if err != nil {
			if errors.GetErrorCode(err) == errors.ErrTaskNotFound {
				expired = append(expired, id)
				continue
			}
			return nil, err
		}
		if filter.matches(task) {
			matched = append(matched, task)
		}
	}
	if len(expired) > 0 {
		_ = s.client.SRem(ctx, s.indexKey, expired...).Err()
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// SetState transitions a task, refusing to leave terminal states
func (s *redisStore) SetState(ctx context.Context, id string, state platform.TaskState, errMsg string) error {
	if s.isClosed() {
		return ErrClosed
	}

	task, err := s.read(ctx, id)
	if err != nil {
		return err
	}
	if err := refuseTerminalExit(task, state); err != nil {
		return err
	}

	task.State = state
	task.Error = errMsg
	task.UpdatedAt = time.Now()
	if err := s.write(ctx, task); err != nil {
		return err
	}

	s.logger.Debug("Task state changed", "task_id", id, "state", state)
	return nil
}

// MarkRetry increments the retry counter while retries remain
func (s *redisStore) MarkRetry(ctx context.Context, id string) (bool, error) {
	if s.isClosed() {
		return false, ErrClosed
	}

	task, err := s.read(ctx, id)
	if err != nil {
		return false, err
	}
	if task.RetryCount >= task.MaxRetries {
		return false, nil
	}

	task.RetryCount++
	task.UpdatedAt = time.Now()
	if err := s.write(ctx, task); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a task and its index entry
func (s *redisStore) Delete(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrClosed
	}

	deleted, err := s.client.Del(ctx, s.taskKey(id)).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "task delete failed")
	}
	_ = s.client.SRem(ctx, s.indexKey, id).Err()
	if deleted == 0 {
		return errors.Newf(errors.ErrTaskNotFound, "task %s not found", id)
	}
	return nil
}

// Close closes the Redis client. Closing twice is harmless.
func (s *redisStore) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "redis close failed")
	}
	return nil
}
