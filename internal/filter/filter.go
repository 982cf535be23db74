// Package filter derives filtered views of a result collection.
package filter

import (
	"strings"

	"github.com/testpulse/dashboard/internal/telemetry"
)

// All disables the status or suite predicate.
const All = "ALL"

// Statuses are the accepted status filter values besides All.
var Statuses = []telemetry.Status{
	telemetry.StatusPassed,
	telemetry.StatusFailed,
	telemetry.StatusSkipped,
	telemetry.StatusRunning,
}

// Query is the composable predicate applied to a result collection.
type Query struct {
	Text   string `json:"text"`
	Status string `json:"status"`
	Suite  string `json:"suite"`
}

// Default is the query that matches everything.
func Default() Query {
	return Query{Status: All, Suite: All}
}

// Normalize upper-cases the status and maps empty status/suite to All.
// Statuses outside Statuses also become All.
func (q Query) Normalize() Query {
	status := telemetry.ParseStatus(q.Status)
	switch {
	case status == "" || string(status) == All:
		q.Status = All
	case status.Known():
		q.Status = string(status)
	default:
		q.Status = All
	}
	if strings.TrimSpace(q.Suite) == "" || strings.EqualFold(q.Suite, All) {
		q.Suite = All
	}
	return q
}

func (q Query) IsDefault() bool {
	return q.Normalize() == Default()
}

// Match reports whether r satisfies all three predicates.
func (q Query) Match(r telemetry.TestResult) bool {
	q = q.Normalize()
	return q.matchText(r) && q.matchStatus(r) && q.matchSuite(r)
}

// An absent name or suite never matches a non-empty search.
func (q Query) matchText(r telemetry.TestResult) bool {
	if q.Text == "" {
		return true
	}
	needle := strings.ToLower(q.Text)
	if r.Name != "" && strings.Contains(strings.ToLower(r.Name), needle) {
		return true
	}
	return r.Suite != "" && strings.Contains(strings.ToLower(r.Suite), needle)
}

func (q Query) matchStatus(r telemetry.TestResult) bool {
	if q.Status == All {
		return true
	}
	return string(telemetry.ParseStatus(string(r.Status))) == q.Status
}

func (q Query) matchSuite(r telemetry.TestResult) bool {
	if q.Suite == All {
		return true
	}
	return strings.EqualFold(r.DisplaySuite(), q.Suite)
}

// Apply returns the results matching q, in input order. The input is never
// modified and the returned slice never aliases it.
func Apply(results []telemetry.TestResult, q Query) []telemetry.TestResult {
	q = q.Normalize()
	out := make([]telemetry.TestResult, 0, len(results))
	for _, r := range results {
		if q.matchText(r) && q.matchStatus(r) && q.matchSuite(r) {
			out = append(out, r)
		}
	}
	return out
}

// Suites lists the distinct display suites in results, in order of first
// appearance, for populating a suite selector. Records without a suite are
// offered as telemetry.UnknownSuite.
func Suites(results []telemetry.TestResult) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range results {
		suite := r.DisplaySuite()
		key := strings.ToUpper(suite)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, suite)
	}
	return out
}
