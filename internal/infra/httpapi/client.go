// Package httpapi is the HTTP transport for the aggregation API. It attaches
// credentials, turns non-2xx responses into *apierr.APIError values and tracks
// upstream health.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/metrics"
)

// DefaultBaseURL is the public aggregation API.
const DefaultBaseURL = "https://api.1inch.dev"

// Config holds transport settings.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Retry     RetryConfig   `yaml:"retry"`
}

// Request describes one upstream call.
type Request struct {
	// Route is the path template used as metrics label (e.g. "/swap/v6.0/{chain}/quote")
	Route string

	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Client performs authenticated calls against the aggregation API.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	userAgent  string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger

	Monitor *Monitor
}

// NewClient creates a new API client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "dexagg/1.0"
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	return &Client{
		baseURL:   base,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry:   cfg.Retry.withDefaults(),
		logger:  logger,
		Monitor: NewMonitor(),
	}, nil
}

// Close cleans up idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Do performs req and returns the raw 2xx body. GET requests are retried on
// transport faults according to the retry configuration.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Method != http.MethodGet {
		return c.do(ctx, req)
	}
	return callWithRetry(ctx, c.retry, func() ([]byte, error) {
		return c.do(ctx, req)
	})
}

// DoJSON performs req and decodes the body into T.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T

	body, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, &apierr.DecodeError{Target: fmt.Sprintf("%T", out), Err: err}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	start := time.Now()
	route := req.Route
	if route == "" {
		route = req.Path
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get("X-Request-Id")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.Monitor.RecordFailure()
		metrics.HTTPRequestsTotal.WithLabelValues(route, "error").Inc()
		return nil, fmt.Errorf("request %s %s: %w", req.Method, route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	latency := time.Since(start)
	metrics.HTTPLatency.WithLabelValues(route).Observe(latency.Seconds())
	metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		c.Monitor.RecordFailure()
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("Upstream call",
		"method", req.Method,
		"route", route,
		"status", resp.StatusCode,
		"latency", latency,
		"client_request_id", requestID,
	)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		c.Monitor.RecordThrottle(resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.Monitor.RecordFailure()
		return nil, parseAPIError(resp, body)
	}

	c.Monitor.RecordSuccess(latency)
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return httpReq, nil
}

// parseAPIError builds the structured error for a non-2xx response. Fields
// the body omits are filled from the response itself.
func parseAPIError(resp *http.Response, body []byte) error {
	apiErr := &apierr.APIError{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr = &apierr.APIError{Description: truncate(strings.TrimSpace(string(body)), 512)}
		}
	}

	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = resp.StatusCode
	}
	if apiErr.ErrorCode == "" {
		apiErr.ErrorCode = http.StatusText(resp.StatusCode)
	}
	if apiErr.Description == "" {
		apiErr.Description = apiErr.ErrorCode
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = resp.Header.Get("X-Request-Id")
	}
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
