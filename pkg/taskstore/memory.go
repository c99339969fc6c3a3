package taskstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
)

// memoryStore keeps tasks in a mutex-guarded map. Reads hand out clones.
type memoryStore struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	closed int32
	logger logger.Logger
}

// NewMemoryStore creates an in-memory task store
func NewMemoryStore(log logger.Logger) Store {
	if log == nil {
		log = logger.Discard
	}
	return &memoryStore{
		tasks:  make(map[string]*Task),
		logger: log,
	}
}

func (s *memoryStore) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

// Save inserts or replaces a task
func (s *memoryStore) Save(ctx context.Context, task *Task) error {
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

	s.mu.Lock()
	s.tasks[task.ID] = task.Clone()
	s.mu.Unlock()

	s.logger.Debug("Task saved", "task_id", task.ID, "platform", task.Platform, "state", task.State)
	return nil
}

// Get returns a copy of the task with the given id
func (s *memoryStore) Get(ctx context.Context, id string) (*Task, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	s.mu.RLock()
	task, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.ErrTaskNotFound, "task %s not found", id)
	}
	return task.Clone(), nil
}

// List returns copies of the tasks matching the filter, oldest first
func (s *memoryStore) List(ctx context.Context, filter Filter) ([]*Task, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	s.mu.RLock()
	matched := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if filter.matches(task) {
			matched = append(matched, task.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// SetState transitions a task, refusing to leave terminal states
func (s *memoryStore) SetState(ctx context.Context, id string, state platform.TaskState, errMsg string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return errors.Newf(errors.ErrTaskNotFound, "task %s not found", id)
	}
	if err := refuseTerminalExit(task, state); err != nil {
		return err
	}

	task.State = state
	task.Error = errMsg
	task.UpdatedAt = time.Now()

	s.logger.Debug("Task state changed", "task_id", id, "state", state)
	return nil
}

// MarkRetry increments the retry counter while retries remain
func (s *memoryStore) MarkRetry(ctx context.Context, id string) (bool, error) {
	if s.isClosed() {
		return false, ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false, errors.Newf(errors.ErrTaskNotFound, "task %s not found", id)
	}
	if task.RetryCount >= task.MaxRetries {
		return false, nil
	}

	task.RetryCount++
	task.UpdatedAt = time.Now()
	return true, nil
}

// Delete removes a task
func (s *memoryStore) Delete(ctx context.Context, id string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return errors.Newf(errors.ErrTaskNotFound, "task %s not found", id)
	}
	delete(s.tasks, id)
	return nil
}

// Close releases the store. Closing twice is harmless.
func (s *memoryStore) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	s.mu.Lock()
	s.tasks = make(map[string]*Task)
	s.mu.Unlock()
	return nil
}
