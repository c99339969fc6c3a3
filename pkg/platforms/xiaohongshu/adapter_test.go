package xiaohongshu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/publishhub/pkg/config"
	"github.com/kart-io/publishhub/pkg/content"
	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
	"github.com/kart-io/publishhub/pkg/platform"
	"github.com/kart-io/publishhub/pkg/transport"
)

func writeEnvelope(w http.ResponseWriter, code int, message string, data interface{}) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	t.Helper()

	cfg := config.NewPlatformConfig("xiaohongshu", "xhs-app", "xhs-secret")
	cfg.AccessToken = "xhs-token"
	cfg.RedirectURI = "https://console.example.com/oauth/callback"

	client := transport.New(baseURL, transport.WithLogger(logger.Discard))
	t.Cleanup(func() { _ = client.Close() })

	a, err := New(cfg, client, logger.Discard)
	require.NoError(t, err)
	return a
}

func imageNote() *content.Content {
	c := content.New(content.TypeImage)
	c.Title = "cafe hopping in lisbon"
	c.Description = "three spots worth the queue"
	c.Images = []string{"https://cdn.example.com/i/1.jpg", "https://cdn.example.com/i/2.jpg"}
	c.Tags = []string{"travel", "coffee"}
	return c
}

func videoNote() *content.Content {
	c := content.New(content.TypeVideo)
	c.Title = "lisbon in 60 seconds"
	c.Description = "a quick tour"
	c.VideoURL = "https://cdn.example.com/v/3.mp4"
	return c
}

func TestAuthURL_CamelCaseParams(t *testing.T) {
	a := newTestAdapter(t, "http://localhost:1")

	parsed, err := url.Parse(a.AuthURL())
	require.NoError(t, err)
	assert.Equal(t, "ark.xiaohongshu.com", parsed.Host)
	assert.Equal(t, "/ark/authorization", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "xhs-app", q.Get("appId"))
	assert.Equal(t, "https://console.example.com/oauth/callback", q.Get("redirectUri"))
	assert.Equal(t, "xiaohongshu_auth", q.Get("state"))
	assert.Empty(t, q.Get("app_id"))
	assert.Empty(t, q.Get("redirect_uri"))
}

func TestValidateContent(t *testing.T) {
	a := newTestAdapter(t, "http://localhost:1")

	nineImages := make([]string, 9)
	tenImages := make([]string, 10)
	for i := range tenImages {
		tenImages[i] = "https://cdn.example.com/i/n.jpg"
		if i < 9 {
			nineImages[i] = tenImages[i]
		}
	}

	tests := []struct {
		name       string
		content    *content.Content
		mutate     func(*content.Content)
		wantErrors int
	}{
		{"valid image note", imageNote(), func(c *content.Content) {}, 0},
		{"valid video note", videoNote(), func(c *content.Content) {}, 0},
		{"missing title", imageNote(), func(c *content.Content) { c.Title = "" }, 1},
		{
			"title too long",
			imageNote(),
			func(c *content.Content) { c.Title = strings.Repeat("题", 101) },
			1,
		},
		{"missing description", imageNote(), func(c *content.Content) { c.Description = "" }, 1},
		{
			"description too long",
			imageNote(),
			func(c *content.Content) { c.Description = strings.Repeat("文", 1001) },
			1,
		},
		{"image note without images", imageNote(), func(c *content.Content) { c.Images = nil }, 1},
		{"image note at image limit", imageNote(), func(c *content.Content) { c.Images = nineImages }, 0},
		{"image note over image limit", imageNote(), func(c *content.Content) { c.Images = tenImages }, 1},
		{"video note without video", videoNote(), func(c *content.Content) { c.VideoURL = "" }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mutate(tt.content)
			result := a.ValidateContent(tt.content)
			assert.Len(t, result.Errors, tt.wantErrors)
		})
	}
}

func TestPublishContent_ImageNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/platform/xiaohongshu/publish", r.URL.Path)

		var payload publishPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "image", payload.NoteType)
		assert.Len(t, payload.Images, 2)
		assert.Equal(t, []string{"travel", "coffee"}, payload.Tags)

		writeEnvelope(w, 0, "ok", map[string]string{"note_id": "note-5"})
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	result := a.PublishContent(context.Background(), platform.NewPublishParams(imageNote()))

	require.True(t, result.Success, "unexpected failure: %s", result.Error)
	assert.Equal(t, "note-5", result.PostID)
	assert.Equal(t, platform.StatusPublished, result.Status)
}

func TestPublishContent_VideoNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload publishPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "video", payload.NoteType)
		assert.Equal(t, "https://cdn.example.com/v/3.mp4", payload.VideoURL)
		assert.Empty(t, payload.Images)

		writeEnvelope(w, 0, "ok", map[string]string{"note_id": "note-6"})
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	result := a.PublishContent(context.Background(), platform.NewPublishParams(videoNote()))

	require.True(t, result.Success)
	assert.Equal(t, "note-6", result.PostID)
}

func TestPublishContent_InvalidContent(t *testing.T) {
	a := newTestAdapter(t, "http://localhost:1")

	c := imageNote()
	c.Images = nil
	result := a.PublishContent(context.Background(), platform.NewPublishParams(c))

	assert.False(t, result.Success)
	assert.Equal(t, errors.ErrContentInvalid, result.ErrorCode)
	assert.Contains(t, result.Error, "at least one image")
}

func TestPublishContent_PlatformRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 300012, "note under review", nil)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	result := a.PublishContent(context.Background(), platform.NewPublishParams(imageNote()))

	assert.False(t, result.Success)
	assert.Equal(t, errors.ErrPlatformRejected, result.ErrorCode)
}

func TestScheduleContent_MissingSchedule(t *testing.T) {
	a := newTestAdapter(t, "http://localhost:1")

	_, err := a.ScheduleContent(context.Background(), platform.NewPublishParams(imageNote()))
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidConfig, errors.GetErrorCode(err))
}

func TestContentEngagement_CollectsBecomeFavorites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, "ok", map[string]int64{
			"views":    900,
			"likes":    120,
			"collects": 45,
			"comments": 12,
			"shares":   7,
		})
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)

	metrics := a.ContentEngagement(context.Background(), "note-5")
	assert.Equal(t, int64(45), metrics[platform.MetricFavorites])
	assert.NotContains(t, metrics, "collects")
	assert.Equal(t, int64(900), metrics[platform.MetricViews])
}

func TestContentEngagement_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)

	metrics := a.ContentEngagement(context.Background(), "note-5")
	assert.NotNil(t, metrics)
	assert.Empty(t, metrics)
}

func TestRefreshToken_StoresRotatedTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/platform/xiaohongshu/oauth/refresh", r.URL.Path)
		writeEnvelope(w, 0, "ok", map[string]interface{}{
			"access_token":  "xhs-access-2",
			"refresh_token": "xhs-refresh-2",
			"expires_in":    86400,
		})
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)

	pair, err := a.RefreshToken(context.Background(), "xhs-refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "xhs-access-2", pair.AccessToken)
	assert.Equal(t, "xhs-access-2", a.Config().AccessToken)
	assert.Equal(t, "xhs-refresh-2", a.Config().RefreshToken)
}

func TestCapabilities(t *testing.T) {
	a := newTestAdapter(t, "http://localhost:1")

	caps := a.Capabilities()
	assert.ElementsMatch(t, []content.Type{content.TypeImage, content.TypeVideo}, caps.SupportedTypes)
	assert.Equal(t, 100, caps.MaxTitleLength)
	assert.Equal(t, 1000, caps.MaxDescription)
	assert.Equal(t, 9, caps.MaxImages)
}
