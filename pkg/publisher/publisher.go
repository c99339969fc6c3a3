// Package publisher provides the manager that fans one publish request out
// across the registered platform adapters.
//
// The manager owns the adapter registry, the shared proxy transport, the
// optional scheduled-task store and the telemetry provider. Its registry is
// populated once at construction and only read afterwards.
package publisher

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/publishhub/observability"
	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
	"github.com/kart-io/publishhub/pkg/platforms/bilibili"
	"github.com/kart-io/publishhub/pkg/platforms/douyin"
	"github.com/kart-io/publishhub/pkg/platforms/wechat"
	"github.com/kart-io/publishhub/pkg/platforms/weibo"
	"github.com/kart-io/publishhub/pkg/platforms/xiaohongshu"
	"github.com/kart-io/publishhub/pkg/report"
	"github.com/kart-io/publishhub/pkg/taskstore"
	"github.com/kart-io/publishhub/pkg/transport"
)

// factories maps each implemented platform to its adapter constructor.
// Kuaishou is a known type with no entry here, so its configs are skipped.
var factories = map[platform.Type]platform.Factory{
	platform.TypeDouyin: func(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (platform.Adapter, error) {
		return douyin.New(cfg, client, log)
	},
	platform.TypeWeChat: func(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (platform.Adapter, error) {
		return wechat.New(cfg, client, log)
	},
	platform.TypeXiaohongshu: func(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (platform.Adapter, error) {
		return xiaohongshu.New(cfg, client, log)
	},
	platform.TypeBilibili: func(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (platform.Adapter, error) {
		return bilibili.New(cfg, client, log)
	},
	platform.TypeWeibo: func(cfg *config.PlatformConfig, client *transport.Client, log logger.Logger) (platform.Adapter, error) {
		return weibo.New(cfg, client, log)
	},
}

// StatusQuery names one published post for a batch status lookup
type StatusQuery struct {
	Platform platform.Type `json:"platform"`
	PostID   string        `json:"post_id"`
}

// Manager fans publish operations out across the configured platforms
type Manager struct {
	cfg       *config.Config
	registry  *platform.Registry
	ordered   []platform.Type
	client    *transport.Client
	tasks     taskstore.Store
	telemetry *observability.Provider
	logger    logger.Logger
}

// New builds a manager from the given options. Platform configurations come
// from cfg.Platforms plus cfg.Source; a failing source load aborts
// construction so callers can tell a config outage from an empty registry.
// Disabled configs are skipped silently, configs naming a platform without
// an adapter are logged and skipped.
func New(ctx context.Context, opts ...config.Option) (*Manager, error) {
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}
	log := cfg.LoggerInstance

	transportOpts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithLogger(log),
	}
	if cfg.HTTPClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(cfg.HTTPClient))
	}
	client := transport.New(cfg.BaseURL, transportOpts...)

	configs := make([]*config.PlatformConfig, 0, len(cfg.Platforms))
	configs = append(configs, cfg.Platforms...)
	if cfg.Source != nil {
		loaded, err := cfg.Source.Load(ctx)
		if err != nil {
			client.Close()
			return nil, err
		}
		configs = append(configs, loaded...)
	}

	m := &Manager{
		cfg:      cfg,
		registry: platform.NewRegistry(log),
		client:   client,
		logger:   log,
	}
	m.registerAdapters(configs)

	if cfg.TaskStore.Type != "" {
		store, err := taskstore.New(taskStoreConfig(cfg.TaskStore), log)
		if err != nil {
			m.registry.Close()
			client.Close()
			return nil, err
		}
		m.tasks = store
	}

	telemetry, err := observability.NewProvider(&cfg.Telemetry)
	if err != nil {
		if m.tasks != nil {
			m.tasks.Close()
		}
		m.registry.Close()
		client.Close()
		return nil, err
	}
	m.telemetry = telemetry

	log.Info("Publish manager initialized",
		"platforms", m.registry.Len(), "task_store", cfg.TaskStore.Type != "")
	return m, nil
}

// registerAdapters instantiates and registers an adapter per usable config,
// then fixes the priority order of the active set.
func (m *Manager) registerAdapters(configs []*config.PlatformConfig) {
	priorities := make(map[platform.Type]int)

	for _, pc := range configs {
		if pc == nil {
			continue
		}
		if !pc.Enabled {
			m.logger.Debug("Platform disabled, skipping", "platform", pc.Platform)
			continue
		}

		t := platform.Type(pc.Platform)
		factory, ok := factories[t]
		if !ok {
			m.logger.Warn("No adapter for platform, skipping", "platform", pc.Platform)
			continue
		}

		adapter, err := factory(pc, m.client, m.logger)
		if err != nil {
			m.logger.Warn("Skipping platform with unusable configuration",
				"platform", pc.Platform, "error", err)
			continue
		}

		if err := m.registry.Register(adapter); err != nil {
			m.logger.Warn("Platform already registered, keeping the first config",
				"platform", pc.Platform, "error", err)
			continue
		}
		m.ordered = append(m.ordered, t)
		priorities[t] = pc.Priority
	}

	sort.SliceStable(m.ordered, func(i, j int) bool {
		return priorities[m.ordered[i]] > priorities[m.ordered[j]]
	})
}

// taskStoreConfig converts manager-level task store settings
func taskStoreConfig(tc config.TaskStoreConfig) taskstore.Config {
	out := taskstore.Config{Type: tc.Type}
	if tc.Redis != nil {
		out.Redis = &taskstore.RedisOptions{
			Addr:         tc.Redis.Addr,
			Password:     tc.Redis.Password,
			DB:           tc.Redis.DB,
			DialTimeout:  tc.Redis.DialTimeout,
			ReadTimeout:  tc.Redis.ReadTimeout,
			WriteTimeout: tc.Redis.WriteTimeout,
			PoolSize:     tc.Redis.PoolSize,
			KeyPrefix:    tc.Redis.KeyPrefix,
			TerminalTTL:  tc.Redis.TerminalTTL,
		}
	}
	return out
}

// GetAdapter returns the adapter for t, nil when the platform is not
// configured or not enabled. A nil return is not an error.
func (m *Manager) GetAdapter(t platform.Type) platform.Adapter {
	adapter, ok := m.registry.Get(t)
	if !ok {
		return nil
	}
	return adapter
}

// AvailablePlatforms returns the active platforms ordered by config priority,
// highest first, registration order breaking ties.
func (m *Manager) AvailablePlatforms() []platform.Type {
	out := make([]platform.Type, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Publish fans the request out sequentially over the target platforms in the
// order given, defaulting to every available platform. Targets without a
// registered adapter are skipped without a result entry. One platform's
// failure, including a panic, never aborts the loop: the fan-out yields
// exactly one result per resolvable target.
func (m *Manager) Publish(ctx context.Context, params *platform.PublishParams) []*platform.PublishResult {
	if params == nil {
		m.logger.Warn("Publish called without params")
		return []*platform.PublishResult{}
	}

	targets := params.Targets
	if len(targets) == 0 {
		targets = m.AvailablePlatforms()
	}

	results := make([]*platform.PublishResult, 0, len(targets))
	for _, t := range targets {
		adapter, ok := m.registry.Get(t)
		if !ok {
			m.logger.Warn("Skipping unregistered target platform", "platform", t)
			continue
		}
		results = append(results, m.publishOne(ctx, adapter, params))
	}
	return results
}

// publishOne runs one adapter publish inside a panic fence so a broken
// adapter degrades to a failed result instead of aborting the fan-out.
func (m *Manager) publishOne(ctx context.Context, adapter platform.Adapter, params *platform.PublishParams) (result *platform.PublishResult) {
	t := adapter.Platform()

	contentType := ""
	if params.Content != nil {
		contentType = string(params.Content.Type)
	}
	ctx, span := m.telemetry.TracePublish(ctx, t.String(), contentType)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Platform adapter panicked during publish", "platform", t, "panic", r)
			err := errors.Newf(errors.ErrInternal, "adapter panic: %v", r)
			result = platform.NewFailure(t, err).WithDuration(time.Since(start))
		}
		if result == nil {
			m.logger.Error("Platform adapter returned no result", "platform", t)
			err := errors.New(errors.ErrInternal, "adapter returned no result")
			result = platform.NewFailure(t, err).WithDuration(time.Since(start))
		}

		if result.Success {
			m.telemetry.RecordPublish(ctx, t.String(), time.Since(start))
			m.telemetry.SetSpanSuccess(span)
		} else {
			m.telemetry.RecordPublishFailed(ctx, t.String(), time.Since(start), string(result.ErrorCode))
			m.telemetry.SetSpanError(span, errors.New(result.ErrorCode, result.Error))
		}
	}()

	result = adapter.PublishContent(ctx, params)
	return result
}

// PublishReport fans out like Publish and aggregates the results
func (m *Manager) PublishReport(ctx context.Context, params *platform.PublishParams) *report.Report {
	return report.New(m.Publish(ctx, params))
}

// ValidateContent validates c against each target platform's rules without
// touching the network. Platforms without a registered adapter are omitted
// from the map; no platform's verdict short-circuits another's.
func (m *Manager) ValidateContent(c *content.Content, targets ...platform.Type) map[platform.Type]*platform.ValidationResult {
	if len(targets) == 0 {
		targets = m.AvailablePlatforms()
	}

	results := make(map[platform.Type]*platform.ValidationResult)
	for _, t := range targets {
		adapter, ok := m.registry.Get(t)
		if !ok {
			continue
		}
		results[t] = adapter.ValidateContent(c)
	}
	return results
}

// BatchPublishStatus looks up many post statuses concurrently. Lookups that
// error or resolve to nothing are dropped; the returned order does not
// follow the query order.
func (m *Manager) BatchPublishStatus(ctx context.Context, queries []StatusQuery) []*platform.TaskStatus {
	statuses := make([]*platform.TaskStatus, 0, len(queries))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, q := range queries {
		adapter, ok := m.registry.Get(q.Platform)
		if !ok {
			m.logger.Warn("Skipping status lookup for unregistered platform", "platform", q.Platform)
			continue
		}

		wg.Add(1)
		go func(adapter platform.Adapter, t platform.Type, postID string) {
			defer wg.Done()

			status, err := adapter.PublishStatus(ctx, postID)
			if err != nil {
				m.logger.Warn("Dropping failed status lookup",
					"platform", t, "post_id", postID, "error", err)
				return
			}
			if status == nil {
				return
			}

			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
		}(adapter, q.Platform, q.PostID)
	}

	wg.Wait()
	return statuses
}

// Schedule registers content for later publication on one platform and
// returns the platform-side task id. When a task store is configured the
// accepted task is recorded locally for monitoring and retry bookkeeping.
func (m *Manager) Schedule(ctx context.Context, params *platform.PublishParams, t platform.Type) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	adapter, ok := m.registry.Get(t)
	if !ok {
		return "", errors.Newf(errors.ErrNotInitialized,
			"platform %s is not configured or enabled", t)
	}

	remoteID, err := adapter.ScheduleContent(ctx, params)
	if err != nil {
		return "", err
	}

	if m.tasks != nil {
		var publishAt time.Time
		if params.Schedule != nil && params.Schedule.PublishAt != nil {
			publishAt = *params.Schedule.PublishAt
		}

		task := taskstore.NewTask(t, params.Content, publishAt)
		task.RemoteTaskID = remoteID
		task.MaxRetries = m.cfg.MaxRetries
		if err := m.tasks.Save(ctx, task); err != nil {
			m.logger.Error("Failed to record scheduled task",
				"platform", t, "remote_task_id", remoteID, "error", err)
		} else {
			m.telemetry.AddScheduledTasks(ctx, 1)
		}
	}

	m.logger.Info("Content scheduled", "platform", t, "remote_task_id", remoteID)
	return remoteID, nil
}

// CancelScheduled cancels a scheduled task by its platform-side id. On a
// successful cancel the stored task record, when present, is marked
// cancelled.
func (m *Manager) CancelScheduled(ctx context.Context, t platform.Type, taskID string) bool {
	adapter, ok := m.registry.Get(t)
	if !ok {
		m.logger.Warn("Cancel requested for unregistered platform", "platform", t)
		return false
	}

	if !adapter.CancelScheduled(ctx, taskID) {
		return false
	}

	if m.tasks != nil {
		if task := m.findTaskByRemoteID(ctx, t, taskID); task != nil {
			if err := m.tasks.SetState(ctx, task.ID, platform.TaskCancelled, ""); err != nil {
				m.logger.Error("Failed to mark stored task cancelled",
					"task_id", task.ID, "error", err)
			} else {
				m.telemetry.AddScheduledTasks(ctx, -1)
			}
		}
	}
	return true
}

// findTaskByRemoteID resolves a platform-side task id to the stored record
func (m *Manager) findTaskByRemoteID(ctx context.Context, t platform.Type, remoteID string) *taskstore.Task {
	tasks, err := m.tasks.List(ctx, taskstore.Filter{Platform: t})
	if err != nil {
		m.logger.Error("Failed to list stored tasks", "platform", t, "error", err)
		return nil
	}
	for _, task := range tasks {
		if task.RemoteTaskID == remoteID {
			return task
		}
	}
	return nil
}

// Tasks lists stored scheduled tasks for monitoring dashboards. Without a
// configured task store the listing is empty, never an error.
func (m *Manager) Tasks(ctx context.Context, filter taskstore.Filter) ([]*taskstore.Task, error) {
	if m.tasks == nil {
		return []*taskstore.Task{}, nil
	}
	return m.tasks.List(ctx, filter)
}

// Health checks every registered platform concurrently
func (m *Manager) Health(ctx context.Context) map[platform.Type]bool {
	health := make(map[platform.Type]bool)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, t := range m.registry.List() {
		adapter, ok := m.registry.Get(t)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(t platform.Type, adapter platform.Adapter) {
			defer wg.Done()

			reachable := adapter.TestConnection(ctx)
			mu.Lock()
			health[t] = reachable
			mu.Unlock()
		}(t, adapter)
	}

	wg.Wait()
	return health
}

// Close shuts down the registry, the task store, the shared transport and
// the telemetry provider
func (m *Manager) Close() error {
	m.logger.Info("Closing publish manager")

	merr := errors.NewMultiError()
	if err := m.registry.Close(); err != nil {
		merr.Add(err)
	}
	if m.tasks != nil {
		if err := m.tasks.Close(); err != nil {
			merr.Add(err)
		}
	}
	if err := m.client.Close(); err != nil {
		merr.Add(err)
	}
	if m.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.telemetry.Shutdown(ctx); err != nil {
			merr.Add(err)
		}
	}
	return merr.ErrorOrNil()
}
