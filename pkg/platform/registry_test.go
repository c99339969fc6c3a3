package platform

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/logger"
)

// stubAdapter is a minimal Adapter for registry tests
type stubAdapter struct {
	platform Type
	closeErr error
	closed   bool
}

func (s *stubAdapter) Platform() Type                          { return s.platform }
func (s *stubAdapter) Capabilities() Capabilities              { return Capabilities{Platform: s.platform} }
func (s *stubAdapter) Configure(cfg *config.PlatformConfig)    {}
func (s *stubAdapter) Config() *config.PlatformConfig          { return nil }
func (s *stubAdapter) TestConnection(ctx context.Context) bool { return true }
func (s *stubAdapter) AuthURL() string                         { return "" }
func (s *stubAdapter) ExchangeToken(ctx context.Context, code string) (*TokenPair, error) {
	return nil, nil
}
func (s *stubAdapter) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	return nil, nil
}
func (s *stubAdapter) ValidateContent(c *content.Content) *ValidationResult {
	return NewValidationResult()
}
func (s *stubAdapter) PublishContent(ctx context.Context, params *PublishParams) *PublishResult {
	return NewSuccess(s.platform, "post-1")
}
func (s *stubAdapter) ScheduleContent(ctx context.Context, params *PublishParams) (string, error) {
	return "task-1", nil
}
func (s *stubAdapter) CancelScheduled(ctx context.Context, taskID string) bool { return false }
func (s *stubAdapter) PublishStatus(ctx context.Context, postID string) (*TaskStatus, error) {
	return nil, nil
}
func (s *stubAdapter) ContentEngagement(ctx context.Context, postID string) map[string]int64 {
	return map[string]int64{}
}
func (s *stubAdapter) UpdateContent(ctx context.Context, postID string, update *content.ContentUpdate) bool {
	return false
}
func (s *stubAdapter) DeleteContent(ctx context.Context, postID string) bool { return false }
func (s *stubAdapter) Close() error {
	s.closed = true
	return s.closeErr
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(logger.Discard)

	require.NoError(t, r.Register(&stubAdapter{platform: TypeDouyin}))
	require.NoError(t, r.Register(&stubAdapter{platform: TypeWeibo}))

	adapter, ok := r.Get(TypeDouyin)
	require.True(t, ok)
	assert.Equal(t, TypeDouyin, adapter.Platform())

	_, ok = r.Get(TypeBilibili)
	assert.False(t, ok)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := NewRegistry(logger.Discard)

	require.NoError(t, r.Register(&stubAdapter{platform: TypeWeChat}))
	err := r.Register(&stubAdapter{platform: TypeWeChat})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_NilAdapter(t *testing.T) {
	r := NewRegistry(logger.Discard)
	assert.Error(t, r.Register(nil))
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry(logger.Discard)
	require.NoError(t, r.Register(&stubAdapter{platform: TypeWeibo}))
	require.NoError(t, r.Register(&stubAdapter{platform: TypeBilibili}))
	require.NoError(t, r.Register(&stubAdapter{platform: TypeDouyin}))

	assert.Equal(t, []Type{TypeBilibili, TypeDouyin, TypeWeibo}, r.List())
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry(logger.Discard)

	a1 := &stubAdapter{platform: TypeDouyin}
	a2 := &stubAdapter{platform: TypeWeibo, closeErr: fmt.Errorf("close failed")}
	require.NoError(t, r.Register(a1))
	require.NoError(t, r.Register(a2))

	err := r.Close()
	require.Error(t, err)
	assert.True(t, a1.closed)
	assert.True(t, a2.closed)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(logger.Discard)
	require.NoError(t, r.Register(&stubAdapter{platform: TypeDouyin}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Get(TypeDouyin)
			_ = r.List()
			_ = r.Len()
		}()
	}
	wg.Wait()
}
