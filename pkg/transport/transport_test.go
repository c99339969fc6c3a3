package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/publishhub/pkg/errors"
)

func envelope(code int, message string, data interface{}) []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"code":    code,
		"message": message,
		"data":    data,
	})
	return raw
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/platform/douyin/status", r.URL.Path)
		assert.Equal(t, "post-1", r.URL.Query().Get("post_id"))
		_, _ = w.Write(envelope(0, "ok", map[string]string{"status": "published"}))
	}))
	defer server.Close()

	client := New(server.URL)
	defer func() { _ = client.Close() }()

	var out struct {
		Status string `json:"status"`
	}
	query := url.Values{"post_id": []string{"post-1"}}
	err := client.Get(context.Background(), "/platform/douyin/status", query, &out)
	require.NoError(t, err)
	assert.Equal(t, "published", out.Status)
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["title"])

		_, _ = w.Write(envelope(0, "ok", map[string]string{"item_id": "item-9"}))
	}))
	defer server.Close()

	client := New(server.URL)
	defer func() { _ = client.Close() }()

	var out struct {
		ItemID string `json:"item_id"`
	}
	err := client.Post(context.Background(), "/platform/douyin/publish", map[string]string{"title": "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "item-9", out.ItemID)
}

func TestClient_EnvelopeRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(40001, "content blocked by review", nil))
	}))
	defer server.Close()

	client := New(server.URL)
	defer func() { _ = client.Close() }()

	err := client.Post(context.Background(), "/platform/weibo/publish", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrPlatformRejected, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "content blocked by review")
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode errors.ErrorCode
	}{
		{"server error", http.StatusInternalServerError, errors.ErrPlatformUnavailable},
		{"bad gateway", http.StatusBadGateway, errors.ErrPlatformUnavailable},
		{"rate limited", http.StatusTooManyRequests, errors.ErrRateLimitExceeded},
		{"unauthorized", http.StatusUnauthorized, errors.ErrAuthFailed},
		{"forbidden", http.StatusForbidden, errors.ErrAuthFailed},
		{"bad request", http.StatusBadRequest, errors.ErrPlatformError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := New(server.URL)
			defer func() { _ = client.Close() }()

			err := client.Get(context.Background(), "/platform/wechat/ping", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetErrorCode(err))
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write(envelope(0, "ok", nil))
	}))
	defer server.Close()

	client := New(server.URL, WithTimeout(20*time.Millisecond))
	defer func() { _ = client.Close() }()

	err := client.Get(context.Background(), "/platform/bilibili/ping", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrNetworkTimeout, errors.GetErrorCode(err))
}

func TestClient_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write(envelope(0, "ok", nil))
	}))
	defer server.Close()

	client := New(server.URL)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Get(ctx, "/platform/bilibili/ping", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrConnectionFailed, errors.GetErrorCode(err))
}

func TestClient_PutAndDelete(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		_, _ = w.Write(envelope(0, "ok", map[string]bool{"updated": true}))
	}))
	defer server.Close()

	client := New(server.URL)
	defer func() { _ = client.Close() }()

	require.NoError(t, client.Put(context.Background(), "/platform/weibo/content", map[string]string{"title": "x"}, nil))
	require.NoError(t, client.Delete(context.Background(), "/platform/weibo/content", url.Values{"post_id": []string{"p1"}}, nil))
	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
}

func TestClient_Closed(t *testing.T) {
	client := New("http://localhost:1")
	require.NoError(t, client.Close())
	require.NoError(t, client.Close()) // idempotent

	err := client.Get(context.Background(), "/ping", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrConnectionFailed, errors.GetErrorCode(err))
}

func TestClient_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(envelope(0, "ok", nil))
	}))
	defer server.Close()

	client := New(server.URL)
	defer func() { _ = client.Close() }()

	_ = client.Get(context.Background(), "/ok", nil, nil)
	_ = client.Get(context.Background(), "/fail", nil, nil)

	m := client.Metrics()
	assert.Equal(t, int64(2), m.RequestCount)
	assert.Equal(t, int64(1), m.SuccessCount)
	assert.Equal(t, int64(1), m.ErrorCount)
}

func TestClient_BaseURLTrimmed(t *testing.T) {
	client := New("http://example.com/")
	assert.Equal(t, "http://example.com", client.BaseURL())
}
