package charts

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/testpulse/dashboard/internal/database"
	"github.com/testpulse/dashboard/internal/telemetry"
)

type Generator struct {
	height string
}

func NewGenerator() *Generator {
	return &Generator{height: "300px"}
}

func (g *Generator) init() charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Height: g.height,
		Width:  "100%",
	})
}

// StatusChart renders the passed/failed/skipped split as a pie.
func (g *Generator) StatusChart(s telemetry.DashboardStats) string {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Test Results", Subtitle: "Pass rate " + s.FormatPassRate()}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		g.init(),
	)

	pie.AddSeries("Status", []opts.PieData{
		{Name: "Passed", Value: s.Passed},
		{Name: "Failed", Value: s.Failed},
		{Name: "Skipped", Value: s.Skipped},
	}).SetSeriesOptions(
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
	)

	return g.renderToString(pie)
}

// SuiteChart renders per-suite counts as stacked bars.
func (g *Generator) SuiteChart(counts []telemetry.SuiteCount) string {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Results by Suite"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		g.init(),
	)

	xAxis := make([]string, len(counts))
	passed := make([]opts.BarData, len(counts))
	failed := make([]opts.BarData, len(counts))
	skipped := make([]opts.BarData, len(counts))

	for i, c := range counts {
		xAxis[i] = c.Suite
		passed[i] = opts.BarData{Value: c.Passed}
		failed[i] = opts.BarData{Value: c.Failed}
		skipped[i] = opts.BarData{Value: c.Skipped}
	}

	bar.SetXAxis(xAxis).
		AddSeries("Passed", passed).
		AddSeries("Failed", failed).
		AddSeries("Skipped", skipped).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))

	return g.renderToString(bar)
}

// TrendChart renders recorded pass rates over time.
func (g *Generator) TrendChart(snaps []database.Snapshot) string {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Pass Rate Trend"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		g.init(),
	)

	xAxis := make([]string, len(snaps))
	yAxis := make([]opts.LineData, len(snaps))

	for i, s := range snaps {
		xAxis[i] = s.TakenAt.Format("Jan 02 15:04")
		yAxis[i] = opts.LineData{Value: s.PassRate}
	}

	line.SetXAxis(xAxis).
		AddSeries("Pass Rate %", yAxis).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return g.renderToString(line)
}

// Sparkline renders values as a small inline SVG polyline.
func (g *Generator) Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	width := 100
	height := 30

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if min == max {
		max = min + 1
	}

	points := make([]string, len(values))
	for i, v := range values {
		x := 0.0
		if len(values) > 1 {
			x = float64(i) * float64(width) / float64(len(values)-1)
		}
		y := float64(height) - ((v - min) / (max - min) * float64(height))
		points[i] = fmt.Sprintf("%.1f,%.1f", x, y)
	}

	return fmt.Sprintf(`<svg width="%d" height="%d" class="sparkline"><polyline points="%s" fill="none" stroke="currentColor" stroke-width="2"/></svg>`,
		width, height, strings.Join(points, " "))
}

// Renderer is anything that can render itself to an io.Writer.
type Renderer interface {
	Render(w io.Writer) error
}

func (g *Generator) renderToString(c Renderer) string {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		slog.Error("charts: render failed", "error", err)
		return ""
	}
	return buf.String()
}
