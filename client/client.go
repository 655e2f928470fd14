package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultRetryAfterHeader is the header consulted on 429 responses unless the
// API is configured with a custom one.
const DefaultRetryAfterHeader = "Retry-After"

// Config holds the rate-limited client settings.
type Config struct {
	BaseURL          string
	RateLimit        int               // max calls per window (default 3)
	TimeWindow       time.Duration     // sliding window length (default 60s)
	RetryAfterHeader string            // default "Retry-After"
	Headers          map[string]string // default headers sent with every request
	Timeout          time.Duration     // per-request transport timeout
}

// Client is an HTTP client gated by a sliding-window rate limiter. Responses
// with status 429 are retried after the server-advertised wait; other non-2xx
// statuses and transport failures propagate as typed errors without retry.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	limiter          *SlidingWindowLimiter
	retryAfterHeader string
	window           time.Duration
	headers          map[string]string
	logger           *zap.Logger
}

// New creates a Client from cfg, applying the documented defaults.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 3
	}
	if cfg.TimeWindow <= 0 {
		cfg.TimeWindow = 60 * time.Second
	}
	if cfg.RetryAfterHeader == "" {
		cfg.RetryAfterHeader = DefaultRetryAfterHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	headers := cfg.Headers
	if len(headers) == 0 {
		headers = map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		}
	}

	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		limiter:          NewSlidingWindowLimiter(cfg.RateLimit, cfg.TimeWindow, logger),
		retryAfterHeader: cfg.RetryAfterHeader,
		window:           cfg.TimeWindow,
		headers:          headers,
		logger:           logger,
	}
}

// Get performs a rate-limited GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, query, nil, out)
}

// Do performs a rate-limited request. On 429 it sleeps for the duration
// announced by the retry-after header (falling back to the full window) and
// retries the identical request; a 429 is an explicit signal that the server
// will eventually accept, so there is no attempt ceiling.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, query url.Values, headers map[string]string, out interface{}) error {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	for {
		if err := c.limiter.Admit(ctx); err != nil {
			return err
		}

		status, respBody, retryAfter, err := c.issue(ctx, method, fullURL, body, headers)
		if err != nil {
			c.logger.Error("api transport failure",
				zap.String("method", method),
				zap.String("url", fullURL),
				zap.Error(err),
			)
			return &APITransportError{Method: method, URL: fullURL, Err: err}
		}

		switch {
		case status >= 200 && status < 300:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response from %s: %w", fullURL, err)
			}
			return nil

		case status == http.StatusTooManyRequests:
			wait := c.retryAfterWait(retryAfter)
			c.logger.Warn("rate limited by api, waiting",
				zap.String("method", method),
				zap.String("url", fullURL),
				zap.Duration("wait", wait),
			)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

		default:
			c.logger.Error("api request failed",
				zap.String("method", method),
				zap.String("url", fullURL),
				zap.Int("status", status),
			)
			return &APIRequestError{Method: method, URL: fullURL, Status: status, Body: string(respBody)}
		}
	}
}

// issue sends one request and reads the full response. The rate budget is
// consumed whenever a response arrived, regardless of its status.
func (c *Client) issue(ctx context.Context, method, fullURL string, body interface{}, headers map[string]string) (int, []byte, string, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, "", fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return 0, nil, "", err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()
	c.limiter.RecordCall()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, "", err
	}
	return resp.StatusCode, respBody, resp.Header.Get(c.retryAfterHeader), nil
}

// retryAfterWait converts a retry-after header value into a wait duration,
// defaulting to the full window when absent or non-positive.
func (c *Client) retryAfterWait(retryAfter string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(retryAfter))
	if err != nil || secs <= 0 {
		return c.window
	}
	return time.Duration(secs) * time.Second
}
