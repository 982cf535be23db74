package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testpulse/dashboard/internal/telemetry"
)

func TestAggregate_Empty(t *testing.T) {
	for _, in := range [][]telemetry.TestResult{nil, {}} {
		s := Aggregate(in)
		assert.Equal(t, 0, s.TotalTests)
		assert.Equal(t, 0, s.Passed)
		assert.Equal(t, 0, s.Failed)
		assert.Equal(t, 0, s.Skipped)
		assert.Equal(t, 0, s.TotalSuites)
		assert.Equal(t, 0.0, s.PassRate)
	}
}

func TestAggregate(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	results := []telemetry.TestResult{
		{Name: "a", Suite: "API", Status: "passed", Timestamp: t1},
		{Name: "b", Suite: "API", Status: telemetry.StatusFailed, Timestamp: t2},
		{Name: "c", Suite: "SauceDemo", Status: "Skipped"},
		{Name: "d", Status: telemetry.StatusRunning},
		{},
	}

	s := Aggregate(results)
	assert.Equal(t, 5, s.TotalTests)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 3, s.TotalSuites) // API, SauceDemo, Unknown Suite
	assert.Equal(t, 20.0, s.PassRate)
	assert.Equal(t, t2, s.LastRun)
	assert.Equal(t, "20.0%", s.FormatPassRate())
}

func TestNormalize(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Normalize(telemetry.DashboardStats{TotalTests: 4, Passed: 3, Failed: -1}, now)
	assert.Equal(t, 0, s.Failed)
	assert.Equal(t, 75.0, s.PassRate)
	assert.Equal(t, now, s.LastRun)

	s = Normalize(telemetry.DashboardStats{}, now)
	assert.Equal(t, 0.0, s.PassRate)
}

func TestNormalize_OutOfRangePassRate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, rate := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), 150} {
		s := Normalize(telemetry.DashboardStats{TotalTests: 4, Passed: 2, PassRate: rate}, now)
		assert.Equal(t, 50.0, s.PassRate, "rate %v", rate)
	}
	s := Normalize(telemetry.DashboardStats{TotalTests: 4, Passed: 2, PassRate: 100}, now)
	assert.Equal(t, 100.0, s.PassRate)
}

func TestRoundPassRate(t *testing.T) {
	assert.Equal(t, 83.3, RoundPassRate(PassRate(35, 42)))
	assert.Equal(t, 0.0, RoundPassRate(PassRate(0, 0)))
}

func TestBreakdown_EvenSplit(t *testing.T) {
	s := telemetry.DashboardStats{Passed: 35, Failed: 5, Skipped: 2}
	out := Breakdown(s, DefaultSuites)
	require.Len(t, out, 4)

	assert.Equal(t, telemetry.SuiteCount{Suite: "SauceDemo", Passed: 11, Failed: 2, Skipped: 2}, out[0])
	assert.Equal(t, telemetry.SuiteCount{Suite: "BlazeDemo", Passed: 8, Failed: 1, Skipped: 0}, out[1])

	var passed, failed, skipped int
	for _, c := range out {
		passed += c.Passed
		failed += c.Failed
		skipped += c.Skipped
	}
	assert.Equal(t, 35, passed)
	assert.Equal(t, 5, failed)
	assert.Equal(t, 2, skipped)
}

func TestBreakdown_PrefersRealCounts(t *testing.T) {
	counts := []telemetry.SuiteCount{{Suite: "API", Passed: 3}}
	out := Breakdown(telemetry.DashboardStats{Passed: 100, Suites: counts}, DefaultSuites)
	assert.Equal(t, counts, out)

	out[0].Passed = 99
	assert.Equal(t, 3, counts[0].Passed)
}

func TestBreakdown_Degenerate(t *testing.T) {
	assert.Nil(t, Breakdown(telemetry.DashboardStats{Passed: 3}, nil))
	out := Breakdown(telemetry.DashboardStats{Passed: -3}, []string{"A", "B"})
	assert.Equal(t, 0, out[0].Passed)
}

func TestBreakdownFromResults(t *testing.T) {
	out := BreakdownFromResults([]telemetry.TestResult{
		{Suite: "API", Status: telemetry.StatusPassed},
		{Suite: "SauceDemo", Status: "failed"},
		{Suite: "API", Status: telemetry.StatusSkipped},
		{Status: telemetry.StatusPassed},
	})
	assert.Equal(t, []telemetry.SuiteCount{
		{Suite: "API", Passed: 1, Skipped: 1},
		{Suite: "SauceDemo", Failed: 1},
		{Suite: telemetry.UnknownSuite, Passed: 1},
	}, out)
	assert.Nil(t, BreakdownFromResults(nil))
}
