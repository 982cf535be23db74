package telemetry

import (
	"context"
	"fmt"
	"time"
)

// MockClient serves deterministic telemetry without a backend.
type MockClient struct {
	results []TestResult
	history []HistoryRun
	now     time.Time
}

func NewMockClient() *MockClient {
	return NewMockClientAt(time.Now())
}

// NewMockClientAt generates the mock data relative to now.
func NewMockClientAt(now time.Time) *MockClient {
	c := &MockClient{now: now}
	c.generateMockData()
	return c
}

func (c *MockClient) generateMockData() {
	suites := []string{"SauceDemo", "BlazeDemo", "OrangeHRM", "API"}
	statuses := []Status{StatusPassed, StatusPassed, StatusFailed, StatusSkipped}

	for i := 1; i <= 20; i++ {
		r := TestResult{
			ID:        fmt.Sprintf("%d", i),
			Name:      fmt.Sprintf("Test Case %d", i),
			Suite:     suites[i%4],
			Status:    statuses[i%4],
			Duration:  fmt.Sprintf("%.1fs", 2+float64(i)*0.5),
			Timestamp: c.now.Add(time.Duration(-i*5) * time.Minute),
		}
		if r.Status == StatusFailed {
			r.Error = "Element not found: booking confirmation"
		}
		c.results = append(c.results, r)
	}

	c.history = []HistoryRun{
		{ID: "1", Suite: "SauceDemo Test Suite", Status: RunSuccess, TotalTests: 15, Passed: 14, Failed: 1, Duration: "45.2s", Timestamp: c.now.Add(-30 * time.Minute)},
		{ID: "2", Suite: "BlazeDemo Test Suite", Status: RunSuccess, TotalTests: 8, Passed: 8, Duration: "32.1s", Timestamp: c.now.Add(-25 * time.Minute)},
		{ID: "3", Suite: "OrangeHRM Test Suite", Status: RunFailed, TotalTests: 12, Passed: 10, Failed: 2, Duration: "58.7s", Timestamp: c.now.Add(-20 * time.Minute)},
	}
}

func (c *MockClient) FetchStats(ctx context.Context) DashboardStats {
	s := PlaceholderStats(c.now)
	s.Placeholder = false
	return s
}

func (c *MockClient) FetchRecent(ctx context.Context, limit int) []TestResult {
	if limit <= 0 {
		limit = 10
	}
	if limit > len(c.results) {
		limit = len(c.results)
	}
	out := make([]TestResult, limit)
	copy(out, c.results[:limit])
	return out
}

func (c *MockClient) FetchAll(ctx context.Context) []TestResult {
	out := make([]TestResult, len(c.results))
	copy(out, c.results)
	return out
}

func (c *MockClient) FetchHistory(ctx context.Context) []HistoryRun {
	out := make([]HistoryRun, len(c.history))
	copy(out, c.history)
	return out
}

func (c *MockClient) FetchExecutionDetail(ctx context.Context, id string) (*ExecutionDetail, error) {
	for _, run := range c.history {
		if run.ID != id {
			continue
		}
		d := &ExecutionDetail{
			ID:         run.ID,
			Suite:      run.Suite,
			Status:     string(run.Status),
			TotalTests: run.TotalTests,
			Passed:     run.Passed,
			Failed:     run.Failed,
			Skipped:    run.Skipped,
			Duration:   run.Duration,
			Timestamp:  run.Timestamp,
		}
		return d, nil
	}
	return nil, &RequestError{Op: "fetchExecutionDetail", URL: "mock://test-executions/" + id, StatusCode: 404, Err: ErrNotFound}
}
