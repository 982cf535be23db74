package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status is the outcome of a single test execution.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
	StatusRunning Status = "RUNNING"
)

// ParseStatus normalises a status token to upper case. Unknown tokens are kept
// (upper-cased) so exact-match filtering keeps working on them.
func ParseStatus(s string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether s is one of the four test statuses.
func (s Status) Known() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusRunning:
		return true
	}
	return false
}

// RunStatus is the outcome of a whole suite run. It is a different enum from Status.
type RunStatus string

const (
	RunSuccess RunStatus = "SUCCESS"
	RunFailed  RunStatus = "FAILED"
	RunRunning RunStatus = "RUNNING"
	RunPending RunStatus = "PENDING"
)

const (
	UnknownSuite    = "Unknown Suite"
	UnknownDuration = "N/A"
)

// TestResult is one execution of one test case.
type TestResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Suite     string    `json:"suite,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`

	// TimestampInferred is set when the backend sent no timestamp and the
	// fetch time was used instead.
	TimestampInferred bool `json:"timestampInferred,omitempty"`
}

func (r TestResult) DisplaySuite() string {
	if r.Suite == "" {
		return UnknownSuite
	}
	return r.Suite
}

func (r TestResult) DisplayDuration() string {
	if r.Duration == "" {
		return UnknownDuration
	}
	return r.Duration
}

// SuiteCount holds pass/fail/skip counts for one suite.
type SuiteCount struct {
	Suite   string `json:"suite"`
	Passed  int    `json:"passed"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

func (c SuiteCount) Total() int {
	return c.Passed + c.Failed + c.Skipped
}

// DashboardStats is an aggregate snapshot. Passed+Failed+Skipped is not
// guaranteed to equal TotalTests.
type DashboardStats struct {
	TotalTests  int          `json:"totalTests"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Skipped     int          `json:"skipped"`
	PassRate    float64      `json:"passRate"`
	TotalSuites int          `json:"totalSuites"`
	LastRun     time.Time    `json:"lastRun"`
	Suites      []SuiteCount `json:"suiteBreakdown,omitempty"`

	// Placeholder marks the fallback value returned when the backend is unreachable.
	Placeholder bool `json:"placeholder,omitempty"`
}

// FormatPassRate renders the pass rate with one decimal, e.g. "83.3%".
func (s DashboardStats) FormatPassRate() string {
	return fmt.Sprintf("%.1f%%", s.PassRate)
}

// PlaceholderStats is the documented fallback for FetchStats.
func PlaceholderStats(now time.Time) DashboardStats {
	return DashboardStats{
		TotalTests:  42,
		Passed:      35,
		Failed:      5,
		Skipped:     2,
		PassRate:    83.3,
		TotalSuites: 4,
		LastRun:     now,
		Placeholder: true,
	}
}

// HistoryRun is one completed suite execution.
type HistoryRun struct {
	ID         string    `json:"id"`
	Suite      string    `json:"suite"`
	Status     RunStatus `json:"status"`
	TotalTests int       `json:"totalTests"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Duration   string    `json:"duration"`
	Timestamp  time.Time `json:"timestamp"`
}

// ExecutionDetail is the drill-down view of one execution.
type ExecutionDetail struct {
	ID         string         `json:"id"`
	Suite      string         `json:"suite,omitempty"`
	Status     string         `json:"status,omitempty"`
	TotalTests int            `json:"totalTests"`
	Passed     int            `json:"passed"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Duration   string         `json:"duration,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Tests      []TestResult   `json:"tests,omitempty"`
	Logs       string         `json:"logs,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Client reads telemetry from the reporting API. Every method except
// FetchExecutionDetail degrades to a well-defined fallback instead of failing.
type Client interface {
	FetchStats(ctx context.Context) DashboardStats
	FetchRecent(ctx context.Context, limit int) []TestResult
	FetchAll(ctx context.Context) []TestResult
	FetchHistory(ctx context.Context) []HistoryRun
	FetchExecutionDetail(ctx context.Context, id string) (*ExecutionDetail, error)
}
