// Package stats reduces test results into dashboard summaries.
package stats

import (
	"math"
	"time"

	"github.com/testpulse/dashboard/internal/telemetry"
)

// DefaultSuites are the suites the dashboard charts when the backend does not
// report per-suite counts.
var DefaultSuites = []string{"SauceDemo", "BlazeDemo", "OrangeHRM", "API"}

// Aggregate summarises results. A nil or empty slice yields zero counts and a
// zero pass rate. Records with an unknown status count towards TotalTests only.
func Aggregate(results []telemetry.TestResult) telemetry.DashboardStats {
	var s telemetry.DashboardStats
	suites := make(map[string]struct{})

	for _, r := range results {
		s.TotalTests++
		switch telemetry.ParseStatus(string(r.Status)) {
		case telemetry.StatusPassed:
			s.Passed++
		case telemetry.StatusFailed:
			s.Failed++
		case telemetry.StatusSkipped:
			s.Skipped++
		}
		suites[r.DisplaySuite()] = struct{}{}
		if r.Timestamp.After(s.LastRun) {
			s.LastRun = r.Timestamp
		}
	}

	s.TotalSuites = len(suites)
	s.PassRate = PassRate(s.Passed, s.TotalTests)
	return s
}

// PassRate returns passed/total as a percentage, or 0 when total is 0.
func PassRate(passed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

// RoundPassRate rounds to one decimal place.
func RoundPassRate(v float64) float64 {
	return math.Round(v*10) / 10
}

// Normalize repairs a stats snapshot from the backend. Negative counts are
// clamped and a missing or out-of-range pass rate is recomputed. A zero
// LastRun takes now.
func Normalize(s telemetry.DashboardStats, now time.Time) telemetry.DashboardStats {
	s.TotalTests = max(s.TotalTests, 0)
	s.Passed = max(s.Passed, 0)
	s.Failed = max(s.Failed, 0)
	s.Skipped = max(s.Skipped, 0)
	s.TotalSuites = max(s.TotalSuites, 0)
	if s.PassRate <= 0 || s.PassRate > 100 || math.IsNaN(s.PassRate) || math.IsInf(s.PassRate, 0) {
		s.PassRate = RoundPassRate(PassRate(s.Passed, s.TotalTests))
	}
	if s.LastRun.IsZero() {
		s.LastRun = now
	}
	return s
}
