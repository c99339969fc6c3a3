// Package transport provides the HTTP client for the publishing proxy.
//
// Every platform call goes through the proxy, which wraps the upstream
// platform APIs and answers with a uniform envelope:
//
//	{"code": 0, "message": "ok", "data": {...}}
//
// A non-zero code means the platform rejected the call; the envelope is
// unwrapped here so adapters only ever see decoded data or a coded error.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kart-io/publishhub/pkg/errors"
	"github.com/kart-io/publishhub/pkg/logger"
)

const defaultUserAgent = "PublishHub-Client/1.0"

// Response is the proxy's uniform response envelope
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Metrics contains counters for proxy calls
type Metrics struct {
	RequestCount int64
	SuccessCount int64
	ErrorCount   int64
}

// Client is an HTTP client bound to one proxy base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	userAgent  string
	metrics    *Metrics
	closed     int32
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the total request timeout on the default client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// defaultHTTPClient builds a pooled HTTP client
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: false},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// New creates a client for the proxy at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: defaultHTTPClient(),
		logger:     logger.New(),
		userAgent:  defaultUserAgent,
		metrics:    &Metrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the proxy base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the envelope data into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return errors.New(errors.ErrConnectionFailed, "transport client is closed")
	}
	atomic.AddInt64(&c.metrics.RequestCount, 1)

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			atomic.AddInt64(&c.metrics.ErrorCount, 1)
			return errors.Wrap(err, errors.ErrInternal, "marshaling request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		atomic.AddInt64(&c.metrics.ErrorCount, 1)
		return errors.Wrap(err, errors.ErrConnectionFailed, "creating request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Proxy request", "method", method, "url", fullURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		atomic.AddInt64(&c.metrics.ErrorCount, 1)
		return c.mapTransportError(err, method, fullURL)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		atomic.AddInt64(&c.metrics.ErrorCount, 1)
		return errors.Wrap(err, errors.ErrConnectionFailed, "reading response body")
	}

	c.logger.Debug("Proxy response", "status", resp.StatusCode, "bytes", len(raw))

	if err := c.mapStatusError(resp.StatusCode, raw); err != nil {
		atomic.AddInt64(&c.metrics.ErrorCount, 1)
		return err
	}

	var envelope Response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		atomic.AddInt64(&c.metrics.ErrorCount, 1)
		return errors.Wrap(err, errors.ErrPlatformError, "decoding response envelope")
	}
	if envelope.Code != 0 {
		atomic.AddInt64(&c.metrics.ErrorCount, 1)
		return errors.New(errors.ErrPlatformRejected, envelope.Message).
			WithMetadata("platform_code", envelope.Code)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			atomic.AddInt64(&c.metrics.ErrorCount, 1)
			return errors.Wrap(err, errors.ErrPlatformError, "decoding response data")
		}
	}

	atomic.AddInt64(&c.metrics.SuccessCount, 1)
	return nil
}

// mapTransportError maps client.Do failures to coded errors
func (c *Client) mapTransportError(err error, method, url string) error {
	c.logger.Error("Proxy request failed", "method", method, "url", url, "error", err)
	if isTimeout(err) {
		return errors.NewTimeoutError("proxy request timed out").WithCause(err)
	}
	return errors.NewNetworkError("proxy request failed").WithCause(err)
}

// mapStatusError maps non-2xx statuses to coded errors
func (c *Client) mapStatusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	switch {
	case status == http.StatusTooManyRequests:
		return errors.New(errors.ErrRateLimitExceeded, "proxy rate limited the request").
			WithMetadata("status", status)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Newf(errors.ErrAuthFailed, "proxy refused credentials (status %d): %s", status, msg)
	case status >= 500:
		return errors.Newf(errors.ErrPlatformUnavailable, "proxy unavailable (status %d): %s", status, msg)
	default:
		return errors.Newf(errors.ErrPlatformError, "proxy returned status %d: %s", status, msg)
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

// Metrics returns a snapshot of the call counters
func (c *Client) Metrics() Metrics {
	return Metrics{
		RequestCount: atomic.LoadInt64(&c.metrics.RequestCount),
		SuccessCount: atomic.LoadInt64(&c.metrics.SuccessCount),
		ErrorCount:   atomic.LoadInt64(&c.metrics.ErrorCount),
	}
}

// Close releases idle connections. Further calls fail.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	c.httpClient.CloseIdleConnections()
	return nil
}
