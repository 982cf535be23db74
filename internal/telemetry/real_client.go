package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 8 << 20

type RealClient struct {
	resolver   *Resolver
	httpClient *http.Client
	token      string
	now        func() time.Time
}

type Option func(*RealClient)

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(c *RealClient) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *RealClient) { c.httpClient = hc }
}

// WithClock overrides the clock used for fetch timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *RealClient) { c.now = now }
}

// NewRealClient creates a client for the reporting API. Unlike a health-checked
// constructor it never fails: an unreachable API only means fallbacks.
func NewRealClient(resolver *Resolver, opts ...Option) *RealClient {
	if resolver == nil {
		resolver = &Resolver{}
	}
	c := &RealClient{
		resolver: resolver,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL reports the base URL the next request would use.
func (c *RealClient) BaseURL() string {
	return c.resolver.BaseURL()
}

// get issues a GET against the currently resolved base URL.
func (c *RealClient) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	apiURL := c.resolver.BaseURL() + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return nil, &RequestError{Op: op, URL: apiURL, Err: fmt.Errorf("base URL is not absolute")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, &RequestError{Op: op, URL: apiURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, URL: apiURL, Err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &RequestError{Op: op, URL: apiURL, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &RequestError{Op: op, URL: apiURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &RequestError{Op: op, URL: apiURL, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return data, nil
}

func (c *RealClient) FetchStats(ctx context.Context) DashboardStats {
	now := c.now()
	data, err := c.get(ctx, "fetchStats", "/dashboard/stats", nil)
	if err != nil {
		slog.Warn("telemetry: using placeholder stats", "error", err)
		return PlaceholderStats(now)
	}
	s, err := decodeStats(data, now)
	if err != nil {
		slog.Warn("telemetry: using placeholder stats", "error", err)
		return PlaceholderStats(now)
	}
	return s
}

func (c *RealClient) FetchRecent(ctx context.Context, limit int) []TestResult {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	now := c.now()
	data, err := c.get(ctx, "fetchRecent", "/test-results/recent", params)
	if err != nil {
		slog.Warn("telemetry: recent results unavailable", "error", err)
		return []TestResult{}
	}
	results := decodeResults("fetchRecent", data, now)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (c *RealClient) FetchAll(ctx context.Context) []TestResult {
	now := c.now()
	data, err := c.get(ctx, "fetchAll", "/test-results", nil)
	if err != nil {
		slog.Warn("telemetry: test results unavailable", "error", err)
		return []TestResult{}
	}
	return decodeResults("fetchAll", data, now)
}

func (c *RealClient) FetchHistory(ctx context.Context) []HistoryRun {
	now := c.now()
	data, err := c.get(ctx, "fetchHistory", "/test-history", nil)
	if err != nil {
		slog.Warn("telemetry: test history unavailable", "error", err)
		return []HistoryRun{}
	}
	return decodeHistory("fetchHistory", data, now)
}

// FetchExecutionDetail has no fallback; failures reach the caller.
func (c *RealClient) FetchExecutionDetail(ctx context.Context, id string) (*ExecutionDetail, error) {
	path := "/test-executions/" + url.PathEscape(id)
	data, err := c.get(ctx, "fetchExecutionDetail", path, nil)
	if err != nil {
		slog.Error("telemetry: failed to fetch execution detail", "id", id, "error", err)
		return nil, err
	}
	d, err := decodeDetail(data, c.now())
	if err != nil {
		return nil, &RequestError{Op: "fetchExecutionDetail", URL: c.resolver.BaseURL() + path, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if d.ID == "" {
		d.ID = id
	}
	return d, nil
}

// Health checks the API's /health endpoint.
func (c *RealClient) Health(ctx context.Context) error {
	_, err := c.get(ctx, "health", "/health", nil)
	return err
}
