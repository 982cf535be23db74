package charts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/testpulse/dashboard/internal/database"
	"github.com/testpulse/dashboard/internal/telemetry"
)

func TestStatusChart(t *testing.T) {
	out := NewGenerator().StatusChart(telemetry.PlaceholderStats(time.Now()))
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "Passed")
	assert.Contains(t, out, "83.3%")
}

func TestSuiteChart(t *testing.T) {
	out := NewGenerator().SuiteChart([]telemetry.SuiteCount{
		{Suite: "SauceDemo", Passed: 3, Failed: 1},
		{Suite: "BlazeDemo", Skipped: 2},
	})
	assert.Contains(t, out, "SauceDemo")
	assert.Contains(t, out, "BlazeDemo")
	assert.Contains(t, out, "Skipped")
}

func TestTrendChart(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	out := NewGenerator().TrendChart([]database.Snapshot{
		{TakenAt: base, PassRate: 80},
		{TakenAt: base.Add(time.Hour), PassRate: 90},
	})
	assert.Contains(t, out, "Pass Rate Trend")
	assert.Contains(t, out, "Jan 02 15:04")
}

func TestSparkline(t *testing.T) {
	g := NewGenerator()
	assert.Equal(t, "", g.Sparkline(nil))

	out := g.Sparkline([]float64{50, 75, 100})
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "0.0,30.0")
	assert.Contains(t, out, "100.0,0.0")

	single := g.Sparkline([]float64{42})
	assert.Contains(t, single, "0.0,30.0")
}
