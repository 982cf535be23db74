package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// The reporting API is not guaranteed to send well-formed records, so
// payloads are decoded into generic maps and read field by field.

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// decodeArray splits a JSON array payload into its elements. A payload that is
// not an array yields nil and a warning.
func decodeArray(op string, data []byte) []json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		slog.Warn("telemetry: expected array payload", "op", op, "bytes", len(trimmed))
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		slog.Warn("telemetry: failed to decode array payload", "op", op, "error", err)
		return nil
	}
	return items
}

func decodeObject(raw []byte) (map[string]any, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, false
	}
	return m, true
}

// decodeResults converts an array payload into TestResults. fetchedAt is
// used for records without a timestamp.
func decodeResults(op string, data []byte, fetchedAt time.Time) []TestResult {
	items := decodeArray(op, data)
	results := make([]TestResult, 0, len(items))
	for i, item := range items {
		m, ok := decodeObject(item)
		if !ok {
			slog.Warn("telemetry: skipping malformed record", "op", op, "index", i)
			continue
		}
		results = append(results, resultFromMap(m, i, fetchedAt))
	}
	return results
}

func resultFromMap(m map[string]any, index int, fetchedAt time.Time) TestResult {
	r := TestResult{
		ID:       stringField(m, "id"),
		Name:     stringField(m, "name"),
		Suite:    stringField(m, "suite"),
		Status:   ParseStatus(stringField(m, "status")),
		Duration: stringField(m, "duration"),
		Error:    stringField(m, "error"),
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("%s-%d", r.Name, index)
	}
	if ts, ok := timeField(m, "timestamp"); ok {
		r.Timestamp = ts
	} else {
		r.Timestamp = fetchedAt
		r.TimestampInferred = true
	}
	return r
}

func decodeHistory(op string, data []byte, fetchedAt time.Time) []HistoryRun {
	items := decodeArray(op, data)
	runs := make([]HistoryRun, 0, len(items))
	for i, item := range items {
		m, ok := decodeObject(item)
		if !ok {
			slog.Warn("telemetry: skipping malformed history run", "op", op, "index", i)
			continue
		}
		run := HistoryRun{
			ID:         stringField(m, "id"),
			Suite:      stringField(m, "suite"),
			Status:     RunStatus(strings.ToUpper(stringField(m, "status"))),
			TotalTests: intField(m, "totalTests"),
			Passed:     intField(m, "passed"),
			Failed:     intField(m, "failed"),
			Skipped:    intField(m, "skipped"),
			Duration:   stringField(m, "duration"),
		}
		if run.ID == "" {
			run.ID = fmt.Sprintf("%s-%d", run.Suite, i)
		}
		if run.Duration == "" {
			run.Duration = UnknownDuration
		}
		if ts, ok := timeField(m, "timestamp"); ok {
			run.Timestamp = ts
		} else {
			run.Timestamp = fetchedAt
		}
		runs = append(runs, run)
	}
	return runs
}

func decodeStats(data []byte, fetchedAt time.Time) (DashboardStats, error) {
	m, ok := decodeObject(data)
	if !ok {
		return DashboardStats{}, fmt.Errorf("stats payload is not an object")
	}
	s := DashboardStats{
		TotalTests:  intField(m, "totalTests"),
		Passed:      intField(m, "passed"),
		Failed:      intField(m, "failed"),
		Skipped:     intField(m, "skipped"),
		PassRate:    floatField(m, "passRate"),
		TotalSuites: intField(m, "totalSuites"),
	}
	if ts, ok := timeField(m, "lastRun"); ok {
		s.LastRun = ts
	} else {
		s.LastRun = fetchedAt
	}
	if list, ok := m["suiteBreakdown"].([]any); ok {
		for _, item := range list {
			sm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			s.Suites = append(s.Suites, SuiteCount{
				Suite:   stringField(sm, "suite"),
				Passed:  intField(sm, "passed"),
				Failed:  intField(sm, "failed"),
				Skipped: intField(sm, "skipped"),
			})
		}
	}
	return s, nil
}

func decodeDetail(data []byte, fetchedAt time.Time) (*ExecutionDetail, error) {
	m, ok := decodeObject(data)
	if !ok {
		return nil, fmt.Errorf("execution payload is not an object")
	}
	d := &ExecutionDetail{
		ID:         stringField(m, "id"),
		Suite:      stringField(m, "suite"),
		Status:     strings.ToUpper(stringField(m, "status")),
		TotalTests: intField(m, "totalTests"),
		Passed:     intField(m, "passed"),
		Failed:     intField(m, "failed"),
		Skipped:    intField(m, "skipped"),
		Duration:   stringField(m, "duration"),
		Logs:       stringField(m, "logs"),
		Raw:        m,
	}
	if ts, ok := timeField(m, "timestamp"); ok {
		d.Timestamp = ts
	} else {
		d.Timestamp = fetchedAt
	}
	if tests, ok := m["tests"].([]any); ok {
		for i, item := range tests {
			tm, ok := item.(map[string]any)
			if !ok {
				continue
			}
			d.Tests = append(d.Tests, resultFromMap(tm, i, fetchedAt))
		}
	}
	return d, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// floatField reads a finite number. Non-finite values read as 0.
func floatField(m map[string]any, key string) float64 {
	var f float64
	switch v := m[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// intField reads a count. Negative and out-of-range values read as 0.
func intField(m map[string]any, key string) int {
	f := floatField(m, key)
	if f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func timeField(m map[string]any, key string) (time.Time, bool) {
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
