// Package transport implements the shared HTTP gateway used by every
// TSETMC service: browser-like headers, rate limiting, and retry with
// exponential backoff around plain GET/POST calls.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultRetries   = 3

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	initialBackoff = 1 * time.Second
)

// Client is the rate-limited, retrying HTTP gateway.
type Client struct {
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	maxRetries uint64
	userAgent  string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithMaxRetries sets how many times a failed request is retried
func WithMaxRetries(retries int) ClientOption {
	return func(c *Client) {
		if retries >= 0 {
			c.maxRetries = uint64(retries)
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new gateway client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		maxRetries: DefaultRetries,
		userAgent:  defaultUserAgent,
		logger:     common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-OK response from a TSETMC endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TSETMC API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// retryable reports whether a response status is worth retrying.
// 429 and 5xx are transient; other 4xx are permanent.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// do executes one request per attempt, retrying transient failures with
// exponential backoff. The body factory is invoked per attempt so POST
// bodies can be replayed.
func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header, body func() io.Reader) ([]byte, error) {
	reqID := uuid.NewString()[:8]

	var payload []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
		}

		var r io.Reader
		if body != nil {
			r = body()
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, r)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", "fa,en;q=0.9")
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		elapsed := time.Since(start)
		if err != nil {
			c.logger.Warn().Str("req", reqID).Str("url", rawURL).Dur("elapsed", elapsed).Err(err).Msg("TSETMC request failed")
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Message:    strings.TrimSpace(truncate(string(data), 200)),
				Endpoint:   req.URL.Path,
			}
			c.logger.Warn().Str("req", reqID).Str("url", rawURL).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("TSETMC non-OK response")
			if !retryable(resp.StatusCode) {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}

		c.logger.Debug().Str("req", reqID).Str("url", rawURL).Int("status", resp.StatusCode).Int("bytes", len(data)).Dur("elapsed", elapsed).Msg("TSETMC request")
		payload = data
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func withQuery(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + params.Encode()
}

// GetText performs a GET request and returns the body as text.
func (c *Client) GetText(ctx context.Context, rawURL string, params url.Values) (string, error) {
	data, err := c.do(ctx, http.MethodGet, withQuery(rawURL, params), nil, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetJSON performs a GET request and decodes the JSON body into result.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, result interface{}) error {
	data, err := c.do(ctx, http.MethodGet, withQuery(rawURL, params), nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PostForm performs a form-encoded POST request and returns the body as text.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (string, error) {
	encoded := form.Encode()
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	data, err := c.do(ctx, http.MethodPost, rawURL, header, func() io.Reader {
		return strings.NewReader(encoded)
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PostJSON performs a JSON POST request and returns the body as text.
// The raw text is returned because some endpoints answer JSON requests
// with an HTML error page that callers need to detect.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body interface{}) (string, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request body: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")

	data, err := c.do(ctx, http.MethodPost, rawURL, header, func() io.Reader {
		return bytes.NewReader(encoded)
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Ensure Client implements Gateway
var _ interfaces.Gateway = (*Client)(nil)
