package telemetry

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatField_NonFinite(t *testing.T) {
	m := map[string]any{
		"inf":     "Infinity",
		"neginf":  "-Inf",
		"nan":     "NaN",
		"huge":    "1e300",
		"pct":     "83.3%",
		"numeric": 12.5,
		"bad":     "abc",
	}
	assert.Equal(t, 0.0, floatField(m, "inf"))
	assert.Equal(t, 0.0, floatField(m, "neginf"))
	assert.Equal(t, 0.0, floatField(m, "nan"))
	assert.Equal(t, 1e300, floatField(m, "huge"))
	assert.Equal(t, 83.3, floatField(m, "pct"))
	assert.Equal(t, 12.5, floatField(m, "numeric"))
	assert.Equal(t, 0.0, floatField(m, "bad"))
	assert.Equal(t, 0.0, floatField(m, "missing"))
}

func TestIntField_OutOfRange(t *testing.T) {
	m := map[string]any{
		"huge":     "1e300",
		"hugeNum":  1e300,
		"inf":      "Infinity",
		"negative": -3.0,
		"ok":       "42",
		"max":      float64(math.MaxInt32),
	}
	assert.Equal(t, 0, intField(m, "huge"))
	assert.Equal(t, 0, intField(m, "hugeNum"))
	assert.Equal(t, 0, intField(m, "inf"))
	assert.Equal(t, 0, intField(m, "negative"))
	assert.Equal(t, 42, intField(m, "ok"))
	assert.Equal(t, math.MaxInt32, intField(m, "max"))
}

func TestRealClient_NonFiniteStats(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/stats":
			w.Write([]byte(`{"totalTests":"1e300","passed":"NaN","failed":"-Infinity","skipped":2,"passRate":"Infinity","totalSuites":"1e300"}`))
		case "/api/test-history":
			w.Write([]byte(`[{"id":"1","suite":"API","status":"SUCCESS","totalTests":"1e300","passed":"Infinity"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	client := newTestClient(ts.URL + "/api")

	s := client.FetchStats(context.Background())
	assert.False(t, s.Placeholder)
	assert.Equal(t, 0, s.TotalTests)
	assert.Equal(t, 0, s.Passed)
	assert.Equal(t, 0, s.Failed)
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 0, s.TotalSuites)
	assert.False(t, math.IsInf(s.PassRate, 0))
	assert.False(t, math.IsNaN(s.PassRate))

	runs := client.FetchHistory(context.Background())
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].TotalTests)
	assert.Equal(t, 0, runs[0].Passed)
}
