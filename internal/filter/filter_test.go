package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/testpulse/dashboard/internal/telemetry"
)

func sample() []telemetry.TestResult {
	return []telemetry.TestResult{
		{ID: "1", Name: "Login Test", Suite: "SauceDemo", Status: "passed"},
		{ID: "2", Name: "Cart Operations", Suite: "SauceDemo", Status: telemetry.StatusFailed},
		{ID: "3", Name: "Flight Booking", Suite: "BlazeDemo", Status: telemetry.StatusSkipped},
		{ID: "4", Name: "Employee Search", Suite: "OrangeHRM", Status: telemetry.StatusPassed},
		{ID: "5", Name: "GET /posts", Suite: "API", Status: telemetry.StatusRunning},
	}
}

func ids(results []telemetry.TestResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestApply_Identity(t *testing.T) {
	in := sample()
	assert.Equal(t, in, Apply(in, Query{Status: All, Suite: All}))
	assert.Equal(t, in, Apply(in, Query{}))
	assert.Empty(t, Apply(nil, Default()))
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected []string
	}{
		{"text case-insensitive", Query{Text: "login"}, []string{"1"}},
		{"text matches suite", Query{Text: "sauce"}, []string{"1", "2"}},
		{"status", Query{Status: "PASSED"}, []string{"1", "4"}},
		{"status lower-case query", Query{Status: "failed"}, []string{"2"}},
		{"running status", Query{Status: "RUNNING"}, []string{"5"}},
		{"suite case-insensitive", Query{Suite: "blazedemo"}, []string{"3"}},
		{"suite exact, not substring", Query{Suite: "Sauce"}, []string{}},
		{"anded", Query{Text: "o", Status: "PASSED", Suite: "OrangeHRM"}, []string{"4"}},
		{"no match", Query{Text: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		got := ids(Apply(sample(), tt.query))
		assert.Equal(t, tt.expected, got, tt.name)
	}
}

func TestApply_StatusFromSpecExamples(t *testing.T) {
	in := []telemetry.TestResult{{Name: "x", Status: "passed"}}
	assert.Len(t, Apply(in, Query{Status: "PASSED"}), 1)
	assert.Empty(t, Apply(in, Query{Status: "FAILED"}))
	assert.Len(t, Apply([]telemetry.TestResult{{Name: "Login Test"}}, Query{Text: "login"}), 1)
}

func TestApply_MissingFields(t *testing.T) {
	in := []telemetry.TestResult{
		{ID: "a"},
		{ID: "b", Name: "Checkout"},
		{ID: "c", Suite: "Checkout Suite"},
	}
	assert.Equal(t, []string{"b", "c"}, ids(Apply(in, Query{Text: "checkout"})))
	assert.Equal(t, []string{"a", "b", "c"}, ids(Apply(in, Default())))
	assert.Equal(t, []string{"a", "b"}, ids(Apply(in, Query{Suite: telemetry.UnknownSuite})))
	assert.Equal(t, []string{"a", "b"}, ids(Apply(in, Query{Suite: "unknown suite"})))
	assert.Empty(t, Apply(in, Query{Status: "PASSED"}))
}

func TestApply_SubsequenceAndNoMutation(t *testing.T) {
	in := sample()
	before := fmt.Sprint(in)
	queries := []Query{
		{Text: "e"}, {Status: "PASSED"}, {Suite: "SauceDemo"}, {Text: "t", Status: "FAILED"}, Default(),
	}
	for _, q := range queries {
		out := Apply(in, q)
		assert.True(t, isSubsequence(out, in), "query %+v", q)
		if len(out) > 0 {
			out[0].Name = "changed"
		}
		assert.Equal(t, before, fmt.Sprint(in))
	}
}

func isSubsequence(sub, full []telemetry.TestResult) bool {
	j := 0
	for i := 0; i < len(full) && j < len(sub); i++ {
		if full[i] == sub[j] {
			j++
		}
	}
	return j == len(sub)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Default(), Query{}.Normalize())
	assert.Equal(t, Default(), Query{Status: "all", Suite: "all"}.Normalize())
	assert.Equal(t, Query{Status: "SKIPPED", Suite: All}, Query{Status: " skipped "}.Normalize())
	assert.Equal(t, Default(), Query{Status: "BROKEN"}.Normalize())
	assert.True(t, Query{}.IsDefault())
	assert.False(t, Query{Text: "x"}.IsDefault())
}

func TestMatch(t *testing.T) {
	r := telemetry.TestResult{Name: "Login", Suite: "SauceDemo", Status: "passed"}
	assert.True(t, Query{Text: "LOG", Status: "passed"}.Match(r))
	assert.False(t, Query{Suite: "API"}.Match(r))
}

func TestSuites(t *testing.T) {
	in := append(sample(), telemetry.TestResult{Suite: "saucedemo"}, telemetry.TestResult{})
	assert.Equal(t, []string{"SauceDemo", "BlazeDemo", "OrangeHRM", "API", telemetry.UnknownSuite}, Suites(in))
	assert.Nil(t, Suites(nil))
}

func TestSuites_MatchBreakdownLabels(t *testing.T) {
	in := []telemetry.TestResult{
		{ID: "1", Name: "a", Status: telemetry.StatusPassed},
		{ID: "2", Name: "b", Suite: "API", Status: telemetry.StatusFailed},
	}
	for _, suite := range Suites(in) {
		assert.Len(t, Apply(in, Query{Suite: suite}), 1, suite)
	}
}
