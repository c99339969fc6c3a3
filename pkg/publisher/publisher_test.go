package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/publishhub/observability"
	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
	"github.com/kart-io/publishhub/pkg/report"
	"github.com/kart-io/publishhub/pkg/taskstore"
	"github.com/kart-io/publishhub/pkg/transport"
)

// fakeAdapter is a controllable Adapter for manager tests
type fakeAdapter struct {
	platform       platform.Type
	publishErr     error
	panicOnPublish bool
	publishNil     bool
	publishCalls   int
	invalidContent bool
	scheduleID     string
	scheduleErr    error
	cancelOK       bool
	status         *platform.TaskStatus
	statusErr      error
	connected      bool
	closed         bool
}

func (f *fakeAdapter) Platform() platform.Type { return f.platform }
func (f *fakeAdapter) Capabilities() platform.Capabilities {
	return platform.Capabilities{Platform: f.platform}
}
func (f *fakeAdapter) Configure(cfg *config.PlatformConfig)    {}
func (f *fakeAdapter) Config() *config.PlatformConfig          { return nil }
func (f *fakeAdapter) TestConnection(ctx context.Context) bool { return f.connected }
func (f *fakeAdapter) AuthURL() string                         { return "" }
func (f *fakeAdapter) ExchangeToken(ctx context.Context, code string) (*platform.TokenPair, error) {
	return &platform.TokenPair{AccessToken: "token"}, nil
}
func (f *fakeAdapter) RefreshToken(ctx context.Context, refreshToken string) (*platform.TokenPair, error) {
	return &platform.TokenPair{AccessToken: "token"}, nil
}
func (f *fakeAdapter) ValidateContent(c *content.Content) *platform.ValidationResult {
	if f.invalidContent {
		return platform.Invalid("content rejected")
	}
	return platform.NewValidationResult()
}
func (f *fakeAdapter) PublishContent(ctx context.Context, params *platform.PublishParams) *platform.PublishResult {
	f.publishCalls++
	if f.panicOnPublish {
		panic("adapter exploded")
	}
	if f.publishNil {
		return nil
	}
	if f.publishErr != nil {
		return platform.NewFailure(f.platform, f.publishErr)
	}
	return platform.NewSuccess(f.platform, "post-"+string(f.platform))
}
func (f *fakeAdapter) ScheduleContent(ctx context.Context, params *platform.PublishParams) (string, error) {
	if f.scheduleErr != nil {
		return "", f.scheduleErr
	}
	return f.scheduleID, nil
}
func (f *fakeAdapter) CancelScheduled(ctx context.Context, taskID string) bool { return f.cancelOK }
func (f *fakeAdapter) PublishStatus(ctx context.Context, postID string) (*platform.TaskStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}
func (f *fakeAdapter) ContentEngagement(ctx context.Context, postID string) map[string]int64 {
	return map[string]int64{}
}
func (f *fakeAdapter) UpdateContent(ctx context.Context, postID string, update *content.ContentUpdate) bool {
	return false
}
func (f *fakeAdapter) DeleteContent(ctx context.Context, postID string) bool { return false }
func (f *fakeAdapter) Close() error {
	f.closed = true
	return nil
}

func newTestManager(t *testing.T, adapters ...platform.Adapter) *Manager {
	t.Helper()

	telemetry, err := observability.NewProvider(nil)
	require.NoError(t, err)

	client := transport.New("http://localhost:1", transport.WithLogger(logger.Discard))
	t.Cleanup(func() { _ = client.Close() })

	m := &Manager{
		cfg:       &config.Config{MaxRetries: 3},
		registry:  platform.NewRegistry(logger.Discard),
		client:    client,
		telemetry: telemetry,
		logger:    logger.Discard,
	}
	for _, a := range adapters {
		require.NoError(t, m.registry.Register(a))
		m.ordered = append(m.ordered, a.Platform())
	}
	return m
}

func withMemoryStore(t *testing.T, m *Manager) {
	t.Helper()
	m.tasks = taskstore.NewMemoryStore(logger.Discard)
}

func testParams(targets ...platform.Type) *platform.PublishParams {
	c := content.New(content.TypeVideo)
	c.Title = "launch announcement"
	c.Description = "we shipped"
	c.VideoURL = "https://cdn.example.com/v/1.mp4"
	c.CoverImageURL = "https://cdn.example.com/c/1.jpg"
	return platform.NewPublishParams(c, targets...)
}

func TestPublish_FanOutOrder(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin}
	weibo := &fakeAdapter{platform: platform.TypeWeibo}
	m := newTestManager(t, douyin, weibo)

	results := m.Publish(context.Background(),
		testParams(platform.TypeDouyin, platform.TypeWeibo, platform.TypeBilibili))

	require.Len(t, results, 2, "unregistered bilibili target should be skipped without an entry")
	assert.Equal(t, platform.TypeDouyin, results[0].Platform)
	assert.Equal(t, platform.TypeWeibo, results[1].Platform)
	assert.Equal(t, 1, douyin.publishCalls)
	assert.Equal(t, 1, weibo.publishCalls)
}

func TestPublish_PartialFailureIsolated(t *testing.T) {
	douyin := &fakeAdapter{
		platform:   platform.TypeDouyin,
		publishErr: errors.New(errors.ErrPlatformRejected, "rejected"),
	}
	weibo := &fakeAdapter{platform: platform.TypeWeibo}
	m := newTestManager(t, douyin, weibo)

	results := m.Publish(context.Background(), testParams(platform.TypeDouyin, platform.TypeWeibo))

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, errors.ErrPlatformRejected, results[0].ErrorCode)
	assert.True(t, results[1].Success, "weibo must be unaffected by douyin's rejection")
}

func TestPublish_PanickingAdapter(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin, panicOnPublish: true}
	weibo := &fakeAdapter{platform: platform.TypeWeibo}
	m := newTestManager(t, douyin, weibo)

	results := m.Publish(context.Background(), testParams(platform.TypeDouyin, platform.TypeWeibo))

	require.Len(t, results, 2, "fan-out must survive a panicking adapter")
	assert.False(t, results[0].Success)
	assert.Equal(t, errors.ErrInternal, results[0].ErrorCode)
	assert.Contains(t, results[0].Error, "panic")
	assert.True(t, results[1].Success)
}

func TestPublish_NilResultAdapter(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin, publishNil: true}
	m := newTestManager(t, douyin)

	results := m.Publish(context.Background(), testParams(platform.TypeDouyin))

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, errors.ErrInternal, results[0].ErrorCode)
}

func TestPublish_DefaultTargets(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin}
	weibo := &fakeAdapter{platform: platform.TypeWeibo}
	m := newTestManager(t, douyin, weibo)

	results := m.Publish(context.Background(), testParams())

	require.Len(t, results, 2, "empty targets should fan out to every available platform")
	assert.Equal(t, platform.TypeDouyin, results[0].Platform)
	assert.Equal(t, platform.TypeWeibo, results[1].Platform)
}

func TestPublish_NilParams(t *testing.T) {
	m := newTestManager(t, &fakeAdapter{platform: platform.TypeDouyin})

	results := m.Publish(context.Background(), nil)
	assert.Empty(t, results)
}

func TestPublishReport(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin}
	weibo := &fakeAdapter{
		platform:   platform.TypeWeibo,
		publishErr: errors.New(errors.ErrConnectionFailed, "proxy unreachable"),
	}
	m := newTestManager(t, douyin, weibo)

	r := m.PublishReport(context.Background(), testParams(platform.TypeDouyin, platform.TypeWeibo))

	assert.Equal(t, report.StatusPartial, r.Status)
	assert.Equal(t, 1, r.Successful)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, []platform.Type{platform.TypeWeibo}, r.FailedPlatforms())
}

func TestValidateContent(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin}
	weibo := &fakeAdapter{platform: platform.TypeWeibo, invalidContent: true}
	m := newTestManager(t, douyin, weibo)

	verdicts := m.ValidateContent(testParams().Content,
		platform.TypeDouyin, platform.TypeWeibo, platform.TypeBilibili)

	require.Len(t, verdicts, 2, "unregistered bilibili should be omitted")
	assert.True(t, verdicts[platform.TypeDouyin].Valid)
	assert.False(t, verdicts[platform.TypeWeibo].Valid)
	assert.Equal(t, []string{"content rejected"}, verdicts[platform.TypeWeibo].Errors)
}

func TestBatchPublishStatus(t *testing.T) {
	douyin := &fakeAdapter{
		platform: platform.TypeDouyin,
		status:   &platform.TaskStatus{PostID: "post-dy", Platform: platform.TypeDouyin, State: platform.TaskPublished},
	}
	weibo := &fakeAdapter{
		platform: platform.TypeWeibo,
		status:   &platform.TaskStatus{PostID: "post-wb", Platform: platform.TypeWeibo, State: platform.TaskPending},
	}
	bilibili := &fakeAdapter{
		platform:  platform.TypeBilibili,
		statusErr: errors.New(errors.ErrConnectionFailed, "proxy unreachable"),
	}
	m := newTestManager(t, douyin, weibo, bilibili)

	statuses := m.BatchPublishStatus(context.Background(), []StatusQuery{
		{Platform: platform.TypeDouyin, PostID: "post-dy"},
		{Platform: platform.TypeWeibo, PostID: "post-wb"},
		{Platform: platform.TypeBilibili, PostID: "post-bl"},
	})

	require.Len(t, statuses, 2, "the erroring lookup should be dropped silently")
	ids := []string{statuses[0].PostID, statuses[1].PostID}
	assert.ElementsMatch(t, []string{"post-dy", "post-wb"}, ids)
}

func TestBatchPublishStatus_UnregisteredPlatform(t *testing.T) {
	douyin := &fakeAdapter{
		platform: platform.TypeDouyin,
		status:   &platform.TaskStatus{PostID: "post-dy", Platform: platform.TypeDouyin},
	}
	m := newTestManager(t, douyin)

	statuses := m.BatchPublishStatus(context.Background(), []StatusQuery{
		{Platform: platform.TypeDouyin, PostID: "post-dy"},
		{Platform: platform.TypeBilibili, PostID: "post-bl"},
	})

	require.Len(t, statuses, 1)
	assert.Equal(t, "post-dy", statuses[0].PostID)
}

func TestSchedule(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin, scheduleID: "remote-7"}
	m := newTestManager(t, douyin)
	withMemoryStore(t, m)

	params := testParams(platform.TypeDouyin)
	params.Schedule = content.At(time.Now().Add(2*time.Hour), "Asia/Shanghai")

	remoteID, err := m.Schedule(context.Background(), params, platform.TypeDouyin)
	require.NoError(t, err)
	assert.Equal(t, "remote-7", remoteID)

	tasks, err := m.Tasks(context.Background(), taskstore.Filter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "remote-7", tasks[0].RemoteTaskID)
	assert.Equal(t, platform.TypeDouyin, tasks[0].Platform)
	assert.Equal(t, platform.TaskPending, tasks[0].State)
	assert.Equal(t, 3, tasks[0].MaxRetries, "retry cap should come from manager config")
}

func TestSchedule_UnregisteredPlatform(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Schedule(context.Background(), testParams(), platform.TypeDouyin)
	require.Error(t, err)
	assert.Equal(t, errors.ErrNotInitialized, errors.GetErrorCode(err))
}

func TestSchedule_AdapterErrorPropagates(t *testing.T) {
	douyin := &fakeAdapter{
		platform:    platform.TypeDouyin,
		scheduleErr: errors.New(errors.ErrPlatformRejected, "schedule rejected"),
	}
	m := newTestManager(t, douyin)
	withMemoryStore(t, m)

	_, err := m.Schedule(context.Background(), testParams(), platform.TypeDouyin)
	require.Error(t, err)
	assert.Equal(t, errors.ErrPlatformRejected, errors.GetErrorCode(err))

	tasks, err := m.Tasks(context.Background(), taskstore.Filter{})
	require.NoError(t, err)
	assert.Empty(t, tasks, "a rejected schedule must not leave a task record")
}

func TestCancelScheduled(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin, scheduleID: "remote-7", cancelOK: true}
	m := newTestManager(t, douyin)
	withMemoryStore(t, m)

	params := testParams(platform.TypeDouyin)
	params.Schedule = content.At(time.Now().Add(time.Hour), "")
	_, err := m.Schedule(context.Background(), params, platform.TypeDouyin)
	require.NoError(t, err)

	ok := m.CancelScheduled(context.Background(), platform.TypeDouyin, "remote-7")
	assert.True(t, ok)

	tasks, err := m.Tasks(context.Background(), taskstore.Filter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, platform.TaskCancelled, tasks[0].State)
}

func TestCancelScheduled_Refused(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin, cancelOK: false}
	m := newTestManager(t, douyin)

	assert.False(t, m.CancelScheduled(context.Background(), platform.TypeDouyin, "remote-9"))
	assert.False(t, m.CancelScheduled(context.Background(), platform.TypeWeibo, "remote-9"),
		"unregistered platform should cancel nothing")
}

func TestTasks_NoStoreConfigured(t *testing.T) {
	m := newTestManager(t, &fakeAdapter{platform: platform.TypeDouyin})

	tasks, err := m.Tasks(context.Background(), taskstore.Filter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestHealth(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin, connected: true}
	weibo := &fakeAdapter{platform: platform.TypeWeibo, connected: false}
	m := newTestManager(t, douyin, weibo)

	health := m.Health(context.Background())

	require.Len(t, health, 2)
	assert.True(t, health[platform.TypeDouyin])
	assert.False(t, health[platform.TypeWeibo])
}

func TestGetAdapter(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin}
	m := newTestManager(t, douyin)

	assert.NotNil(t, m.GetAdapter(platform.TypeDouyin))
	assert.Nil(t, m.GetAdapter(platform.TypeWeibo), "missing adapter is nil, not an error")
}

func TestClose(t *testing.T) {
	douyin := &fakeAdapter{platform: platform.TypeDouyin}
	weibo := &fakeAdapter{platform: platform.TypeWeibo}
	m := newTestManager(t, douyin, weibo)
	withMemoryStore(t, m)

	require.NoError(t, m.Close())
	assert.True(t, douyin.closed)
	assert.True(t, weibo.closed)
}

func staticConfig(name string, enabled bool, priority int) *config.PlatformConfig {
	pc := config.NewPlatformConfig(name, name+"-app", name+"-secret")
	pc.Enabled = enabled
	pc.Priority = priority
	return pc
}

func TestNew_ResolvesSourceConfigs(t *testing.T) {
	source := config.NewStaticSource(
		staticConfig("douyin", true, 1),
		staticConfig("bilibili", true, 9),
		staticConfig("weibo", false, 5),
		staticConfig("kuaishou", true, 2),
		staticConfig("myspace", true, 3),
	)

	m, err := New(context.Background(),
		config.WithBaseURL("http://localhost:1"),
		config.WithSource(source),
		config.WithLogger(logger.Discard),
	)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	assert.Equal(t, []platform.Type{platform.TypeBilibili, platform.TypeDouyin},
		m.AvailablePlatforms(), "priority order, disabled and unknown platforms skipped")
	assert.Nil(t, m.GetAdapter(platform.TypeWeibo), "disabled config must not register")
	assert.Nil(t, m.GetAdapter(platform.TypeKuaishou), "kuaishou has no adapter implementation")
}

func TestNew_EmptySource(t *testing.T) {
	m, err := New(context.Background(),
		config.WithBaseURL("http://localhost:1"),
		config.WithSource(config.NewStaticSource()),
		config.WithLogger(logger.Discard),
	)
	require.NoError(t, err, "an empty registry is legitimate, not an error")
	defer func() { _ = m.Close() }()

	assert.Empty(t, m.AvailablePlatforms())
}

func TestNew_FailingSourceAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m, err := New(context.Background(),
		config.WithHTTPSource(server.URL),
		config.WithLogger(logger.Discard),
	)
	require.Error(t, err, "a failing config source must abort construction")
	assert.Nil(t, m)
	assert.Equal(t, errors.ErrConfigFetchFailed, errors.GetErrorCode(err))
}

func TestNew_SkipsInvalidSourceConfig(t *testing.T) {
	broken := staticConfig("bilibili", true, 1)
	broken.AppID = ""

	m, err := New(context.Background(),
		config.WithBaseURL("http://localhost:1"),
		config.WithSource(config.NewStaticSource(staticConfig("douyin", true, 1), broken)),
		config.WithLogger(logger.Discard),
	)
	require.NoError(t, err, "an unusable source config is skipped, not fatal")
	defer func() { _ = m.Close() }()

	assert.Equal(t, []platform.Type{platform.TypeDouyin}, m.AvailablePlatforms())
}

func TestNew_DuplicateConfigKeepsFirst(t *testing.T) {
	first := staticConfig("douyin", true, 1)
	second := staticConfig("douyin", true, 2)
	second.AppID = "other-app"

	m, err := New(context.Background(),
		config.WithBaseURL("http://localhost:1"),
		config.WithSource(config.NewStaticSource(first, second)),
		config.WithLogger(logger.Discard),
	)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	require.Equal(t, []platform.Type{platform.TypeDouyin}, m.AvailablePlatforms())
	assert.Equal(t, "douyin-app", m.GetAdapter(platform.TypeDouyin).Config().AppID)
}

func TestNew_MemoryTaskStore(t *testing.T) {
	m, err := New(context.Background(),
		config.WithBaseURL("http://localhost:1"),
		config.WithSource(config.NewStaticSource(staticConfig("douyin", true, 1))),
		config.WithMemoryTaskStore(),
		config.WithLogger(logger.Discard),
	)
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	tasks, err := m.Tasks(context.Background(), taskstore.Filter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
