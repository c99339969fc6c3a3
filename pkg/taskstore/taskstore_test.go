package taskstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
)

func newTask(p platform.Type) *Task {
	c := content.New(content.TypeVideo)
	c.ID = "content-1"
	c.Title = "stored"
	return NewTask(p, c, time.Now().Add(time.Hour))
}

func TestNewTask(t *testing.T) {
	task := newTask(platform.TypeDouyin)

	if task.ID == "" {
		t.Error("expected a generated id")
	}
	if task.State != platform.TaskPending {
		t.Errorf("expected pending state, got %s", task.State)
	}
	if task.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", task.MaxRetries)
	}
	if task.ContentID != "content-1" {
		t.Errorf("expected content id propagated, got %q", task.ContentID)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Save And Get", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		task := newTask(platform.TypeDouyin)
		if err := s.Save(ctx, task); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		got, err := s.Get(ctx, task.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.ID != task.ID || got.Platform != platform.TypeDouyin {
			t.Errorf("got wrong task back: %+v", got)
		}

		// Mutating the returned copy must not touch stored state.
		got.State = platform.TaskFailed
		fresh, _ := s.Get(ctx, task.ID)
		if fresh.State != platform.TaskPending {
			t.Error("store handed out a shared reference")
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		_, err := s.Get(ctx, "no-such-task")
		if err == nil {
			t.Fatal("expected an error")
		}
		if errors.GetErrorCode(err) != errors.ErrTaskNotFound {
			t.Errorf("expected TASK_NOT_FOUND, got %s", errors.GetErrorCode(err))
		}
	})

	t.Run("List Filters", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		first := newTask(platform.TypeDouyin)
		first.CreatedAt = time.Now().Add(-2 * time.Hour)
		second := newTask(platform.TypeWeibo)
		second.CreatedAt = time.Now().Add(-1 * time.Hour)
		third := newTask(platform.TypeDouyin)
		third.State = platform.TaskFailed

		for _, task := range []*Task{first, second, third} {
			if err := s.Save(ctx, task); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		all, err := s.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(all))
		}
		if all[0].ID != first.ID {
			t.Error("expected oldest task first")
		}

		douyin, _ := s.List(ctx, Filter{Platform: platform.TypeDouyin})
		if len(douyin) != 2 {
			t.Errorf("expected 2 douyin tasks, got %d", len(douyin))
		}

		failed, _ := s.List(ctx, Filter{States: []platform.TaskState{platform.TaskFailed}})
		if len(failed) != 1 || failed[0].ID != third.ID {
			t.Errorf("expected only the failed task, got %d", len(failed))
		}

		byContent, _ := s.List(ctx, Filter{ContentID: "content-1", Limit: 2})
		if len(byContent) != 2 {
			t.Errorf("expected limit to cap results at 2, got %d", len(byContent))
		}
	})

	t.Run("SetState", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		task := newTask(platform.TypeBilibili)
		_ = s.Save(ctx, task)

		if err := s.SetState(ctx, task.ID, platform.TaskProcessing, ""); err != nil {
			t.Fatalf("pending -> processing failed: %v", err)
		}
		if err := s.SetState(ctx, task.ID, platform.TaskPublished, ""); err != nil {
			t.Fatalf("processing -> published failed: %v", err)
		}

		// Published is terminal and cannot be left.
		err := s.SetState(ctx, task.ID, platform.TaskPending, "")
		if err == nil {
			t.Fatal("expected terminal state to be sticky")
		}
		if errors.GetErrorCode(err) != errors.ErrInvalidStateTransition {
			t.Errorf("expected INVALID_STATE_TRANSITION, got %s", errors.GetErrorCode(err))
		}

		// Re-setting the same terminal state stays legal.
		if err := s.SetState(ctx, task.ID, platform.TaskPublished, ""); err != nil {
			t.Errorf("idempotent terminal set failed: %v", err)
		}

		got, _ := s.Get(ctx, task.ID)
		if got.State != platform.TaskPublished {
			t.Errorf("expected published, got %s", got.State)
		}
	})

	t.Run("SetState Records Error", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		task := newTask(platform.TypeWeChat)
		_ = s.Save(ctx, task)
		_ = s.SetState(ctx, task.ID, platform.TaskProcessing, "")

		if err := s.SetState(ctx, task.ID, platform.TaskFailed, "draft rejected"); err != nil {
			t.Fatalf("set failed state: %v", err)
		}
		got, _ := s.Get(ctx, task.ID)
		if got.Error != "draft rejected" {
			t.Errorf("expected error message recorded, got %q", got.Error)
		}
	})

	t.Run("MarkRetry", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		task := newTask(platform.TypeDouyin)
		task.MaxRetries = 2
		_ = s.Save(ctx, task)

		for i := 1; i <= 2; i++ {
			ok, err := s.MarkRetry(ctx, task.ID)
			if err != nil {
				t.Fatalf("retry %d failed: %v", i, err)
			}
			if !ok {
				t.Fatalf("retry %d should be allowed", i)
			}
		}

		ok, err := s.MarkRetry(ctx, task.ID)
		if err != nil {
			t.Fatalf("exhausted retry errored: %v", err)
		}
		if ok {
			t.Error("retry past the cap should be refused")
		}

		got, _ := s.Get(ctx, task.ID)
		if got.RetryCount != 2 {
			t.Errorf("expected retry count pinned at 2, got %d", got.RetryCount)
		}

		if _, err := s.MarkRetry(ctx, "no-such-task"); err == nil {
			t.Error("expected an error for an unknown task")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		task := newTask(platform.TypeWeibo)
		_ = s.Save(ctx, task)

		if err := s.Delete(ctx, task.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := s.Delete(ctx, task.ID); err == nil {
			t.Error("second delete should report not found")
		}
	})

	t.Run("Closed Store", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		if err := s.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("double close should be harmless: %v", err)
		}

		if err := s.Save(ctx, newTask(platform.TypeDouyin)); err != ErrClosed {
			t.Errorf("expected ErrClosed, got %v", err)
		}
		if _, err := s.Get(ctx, "x"); err != ErrClosed {
			t.Errorf("expected ErrClosed, got %v", err)
		}
		if _, err := s.List(ctx, Filter{}); err != ErrClosed {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	})

	t.Run("Concurrent Operations", func(t *testing.T) {
		s := NewMemoryStore(logger.Discard)
		defer func() { _ = s.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				task := newTask(platform.TypeDouyin)
				task.ID = fmt.Sprintf("task-concurrent-%d", n)
				if err := s.Save(ctx, task); err != nil {
					t.Errorf("save failed: %v", err)
				}
				if _, err := s.Get(ctx, task.ID); err != nil {
					t.Errorf("get failed: %v", err)
				}
			}(i)
		}
		wg.Wait()

		all, err := s.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(all) != 20 {
			t.Errorf("expected 20 tasks, got %d", len(all))
		}
	})
}

func TestNew(t *testing.T) {
	s, err := New(Config{}, logger.Discard)
	if err != nil {
		t.Fatalf("empty type should default to memory: %v", err)
	}
	_ = s.Close()

	s, err = New(Config{Type: TypeMemory}, logger.Discard)
	if err != nil {
		t.Fatalf("memory store failed: %v", err)
	}
	_ = s.Close()

	if _, err := New(Config{Type: "etcd"}, logger.Discard); err == nil {
		t.Error("unknown store type should be rejected")
	}

	if _, err := New(Config{Type: TypeRedis}, logger.Discard); err == nil {
		t.Error("redis store without options should be rejected")
	}
	if _, err := New(Config{Type: TypeRedis, Redis: &RedisOptions{}}, logger.Discard); err == nil {
		t.Error("redis store without an address should be rejected")
	}
}

func TestTaskClone(t *testing.T) {
	var nilTask *Task
	if nilTask.Clone() != nil {
		t.Error("nil clone should stay nil")
	}

	task := newTask(platform.TypeDouyin)
	clone := task.Clone()
	clone.State = platform.TaskFailed
	if task.State != platform.TaskPending {
		t.Error("clone mutation leaked into the original")
	}
}
