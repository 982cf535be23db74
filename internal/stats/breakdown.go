package stats

import (
	"github.com/testpulse/dashboard/internal/telemetry"
)

// Breakdown returns per-suite counts for charting. Real per-suite counts on s
// are used as-is; otherwise the aggregate counts are split evenly across
// suites with the remainder on the first one, so every column sums back to
// the aggregate.
func Breakdown(s telemetry.DashboardStats, suites []string) []telemetry.SuiteCount {
	if len(s.Suites) > 0 {
		out := make([]telemetry.SuiteCount, len(s.Suites))
		copy(out, s.Suites)
		return out
	}
	if len(suites) == 0 {
		return nil
	}

	n := len(suites)
	out := make([]telemetry.SuiteCount, n)
	for i, suite := range suites {
		out[i] = telemetry.SuiteCount{
			Suite:   suite,
			Passed:  share(s.Passed, n, i),
			Failed:  share(s.Failed, n, i),
			Skipped: share(s.Skipped, n, i),
		}
	}
	return out
}

func share(total, n, i int) int {
	if total <= 0 {
		return 0
	}
	v := total / n
	if i == 0 {
		v += total % n
	}
	return v
}

// BreakdownFromResults counts results per suite, in order of first appearance.
func BreakdownFromResults(results []telemetry.TestResult) []telemetry.SuiteCount {
	var out []telemetry.SuiteCount
	index := make(map[string]int)
	for _, r := range results {
		suite := r.DisplaySuite()
		i, ok := index[suite]
		if !ok {
			i = len(out)
			index[suite] = i
			out = append(out, telemetry.SuiteCount{Suite: suite})
		}
		switch telemetry.ParseStatus(string(r.Status)) {
		case telemetry.StatusPassed:
			out[i].Passed++
		case telemetry.StatusFailed:
			out[i].Failed++
		case telemetry.StatusSkipped:
			out[i].Skipped++
		}
	}
	return out
}
