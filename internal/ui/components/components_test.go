// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/ui/styles"
)

func plainTheme() *styles.Theme {
	theme := styles.NewTheme("dark", true)
	theme.Apply()
	return theme
}

func ms(f float64) time.Duration {
	return time.Duration(f * float64(time.Millisecond))
}

func sampleSeries() []ChartSeries {
	return []ChartSeries{
		{Name: "cpu", Points: []benchmark.ChartDataPoint{
			{Step: 1, Size: 1, Elapsed: ms(1)},
			{Step: 2, Size: 2, Elapsed: ms(2)},
			{Step: 3, Size: 3, Elapsed: ms(4)},
		}},
		{Name: "gpu", Points: []benchmark.ChartDataPoint{
			{Step: 1, Size: 1, Elapsed: ms(0.5)},
			{Step: 2, Size: 2, Error: "out of memory"},
		}},
	}
}

// =============================================================================
// CHART TESTS
// =============================================================================

func TestChart_LegendPerSeries(t *testing.T) {
	chart := NewChart(40, 5, plainTheme())
	chart.SetSeries(sampleSeries())

	view := chart.View()
	assert.Contains(t, view, "* cpu  4.00ms at size 3")
	assert.Contains(t, view, "o gpu  error at size 2")
}

func TestChart_Layout(t *testing.T) {
	chart := NewChart(40, 5, plainTheme())
	chart.SetSeries(sampleSeries())

	lines := strings.Split(strings.TrimRight(chart.View(), "\n"), "\n")
	// 5 plot rows, the x axis, the x labels and 2 legend rows.
	require.Len(t, lines, 9)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "4.00ms |"), lines[0])
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[4]), "0.00ms |"), lines[4])
	assert.Contains(t, lines[5], "+----")
	assert.Equal(t, "1", strings.Fields(lines[6])[0])
	assert.Equal(t, "3", strings.Fields(lines[6])[1])

	// The slowest cpu point sits in the top right corner.
	assert.True(t, strings.HasSuffix(lines[0], "*"), lines[0])
	// The failed gpu point is drawn on the baseline.
	assert.Contains(t, lines[4], "!")
}

func TestChart_Empty(t *testing.T) {
	chart := NewChart(40, 5, plainTheme())
	chart.SetRuns([]*benchmark.Run{
		benchmark.NewRun("matmul_cpu", nil),
		benchmark.NewRun("matmul_gpu", nil),
	})

	view := chart.View()
	assert.Contains(t, view, "No data points yet.")
	assert.Contains(t, view, "matmul_cpu  waiting")
	assert.Contains(t, view, "matmul_gpu  waiting")
}

func TestChart_OnlyFailures(t *testing.T) {
	chart := NewChart(40, 5, plainTheme())
	chart.SetSeries([]ChartSeries{{Name: "gpu", Points: []benchmark.ChartDataPoint{{Size: 4, Error: "boom"}}}})

	assert.Contains(t, chart.View(), "No successful data points.")
}

func TestChart_SetRunsFollowsChartData(t *testing.T) {
	run := benchmark.NewRun("pool_cpu", nil)
	chart := NewChart(40, 5, plainTheme())

	run.ChartData = append(run.ChartData, benchmark.ChartDataPoint{Size: 8, Elapsed: ms(3)})
	chart.SetRuns([]*benchmark.Run{run})
	assert.Contains(t, chart.View(), "3.00ms at size 8")

	run.ClearChartData()
	chart.SetRuns([]*benchmark.Run{run})
	assert.Contains(t, chart.View(), "No data points yet.")
}

func TestChart_SetResult(t *testing.T) {
	chart := NewChart(40, 5, plainTheme())
	chart.SetResult(&benchmark.SweepResult{Series: []benchmark.Series{
		{Run: "unary_cpu", Points: []benchmark.ChartDataPoint{{Size: 1, Elapsed: ms(1)}, {Size: 2, Elapsed: ms(1)}}},
	}})
	assert.Contains(t, chart.View(), "* unary_cpu")

	chart.SetResult(nil)
	assert.Contains(t, chart.View(), "No data points yet.")
}

func TestChart_MinimumSize(t *testing.T) {
	chart := NewChart(1, 1, plainTheme())
	chart.SetSeries(sampleSeries())

	lines := strings.Split(strings.TrimRight(chart.View(), "\n"), "\n")
	assert.Len(t, lines, minPlotHeight+4)
}

func TestFormatMs(t *testing.T) {
	assert.Equal(t, "0.50ms", formatMs(0.5))
	assert.Equal(t, "42ms", formatMs(42))
	assert.Equal(t, "1.5s", formatMs(1500))
}

// =============================================================================
// SWEEP VIEW TESTS
// =============================================================================

func sampleResult() *benchmark.SweepResult {
	r := &benchmark.SweepResult{
		ID:         "0123456789abcdef",
		Group:      "Pool Ops: input [size, size]",
		Option:     "max",
		StartedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2025, 1, 2, 3, 4, 7, 0, time.UTC),
	}
	for _, s := range sampleSeries() {
		for _, p := range s.Points {
			r.Append(s.Name, p)
		}
	}
	return r
}

func TestSweepView_Header(t *testing.T) {
	view := NewSweepView(80, plainTheme())
	header := view.RenderHeader(sampleResult())

	assert.Contains(t, header, "Pool Ops: input [size, size]")
	assert.Contains(t, header, "option max")
	assert.Contains(t, header, "id 01234567")
	assert.Contains(t, header, "2.00s")
	assert.Contains(t, header, "[X] 1 failed")

	assert.Equal(t, "No sweep result available", view.RenderHeader(nil))
}

func TestSweepView_Summary(t *testing.T) {
	summary := NewSweepView(80, plainTheme()).RenderSummary(sampleResult())
	lines := strings.Split(strings.TrimRight(summary, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, []string{"Run", "Points", "Failed", "Min", "Mean", "Max", "Largest"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"cpu", "3", "0", "1.00ms", "2.33ms", "4.00ms", "3"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"gpu", "1", "1", "500µs", "500µs", "500µs", "1"}, strings.Fields(lines[3]))
}

func TestSweepView_Comparison(t *testing.T) {
	cmps := []benchmark.Comparison{
		{Run: "cpu", Size: 64, Previous: ms(10), Current: ms(12), DiffPct: 20},
		{Run: "gpu", Size: 64, Previous: ms(10), Current: ms(8), DiffPct: -20},
	}
	out := NewSweepView(80, plainTheme()).RenderComparison(cmps, 10)

	assert.Contains(t, out, "+20.0%")
	assert.Contains(t, out, "-20.0%")
	assert.Contains(t, out, "1 regression(s) above +10.0%")

	empty := NewSweepView(80, plainTheme()).RenderComparison(nil, 10)
	assert.Contains(t, empty, "No comparable points.")
}
