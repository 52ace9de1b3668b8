// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/ui/styles"
	"github.com/jeranaias/opbench/internal/util"
)

// =============================================================================
// CHART
// =============================================================================

const (
	// yLabelWidth is the column width of the y axis labels.
	yLabelWidth   = 9
	minPlotWidth  = 10
	minPlotHeight = 3

	traceRune = '.'
	errorRune = '!'
)

// ChartSeries is one named curve.
type ChartSeries struct {
	Name   string
	Points []benchmark.ChartDataPoint
}

// Chart renders series of chart points as an ASCII line chart with the input
// size on the x axis and milliseconds on the y axis. Failed points are drawn
// on the baseline.
type Chart struct {
	width  int
	height int
	theme  *styles.Theme
	series []ChartSeries
}

// NewChart creates a chart that occupies width columns and height plot rows.
// A nil theme renders with the default dark theme.
func NewChart(width, height int, theme *styles.Theme) *Chart {
	if theme == nil {
		theme = styles.NewTheme("dark", false)
	}
	c := &Chart{theme: theme}
	c.SetSize(width, height)
	return c
}

// SetSize updates the chart dimensions.
func (c *Chart) SetSize(width, height int) {
	c.width = max(width, yLabelWidth+2+minPlotWidth)
	c.height = max(height, minPlotHeight)
}

// SetSeries replaces the plotted series.
func (c *Chart) SetSeries(series []ChartSeries) {
	c.series = series
}

// SetRuns plots the accumulated ChartData of each run.
func (c *Chart) SetRuns(runs []*benchmark.Run) {
	series := make([]ChartSeries, 0, len(runs))
	for _, run := range runs {
		if run == nil {
			continue
		}
		series = append(series, ChartSeries{Name: run.Name, Points: run.ChartData})
	}
	c.series = series
}

// SetResult plots every series of a sweep result.
func (c *Chart) SetResult(result *benchmark.SweepResult) {
	if result == nil {
		c.series = nil
		return
	}
	series := make([]ChartSeries, 0, len(result.Series))
	for _, s := range result.Series {
		series = append(series, ChartSeries{Name: s.Run, Points: s.Points})
	}
	c.series = series
}

// bounds returns the plotted ranges over successful points.
func (c *Chart) bounds() (minSize, maxSize int, maxMs float64, ok bool) {
	for _, s := range c.series {
		for _, p := range s.Points {
			if p.Failed() {
				continue
			}
			if !ok || p.Size < minSize {
				minSize = p.Size
			}
			if !ok || p.Size > maxSize {
				maxSize = p.Size
			}
			maxMs = math.Max(maxMs, p.Millis())
			ok = true
		}
	}
	if maxMs <= 0 {
		maxMs = 1
	}
	return minSize, maxSize, maxMs, ok
}

type plotCell struct {
	r      rune
	series int
}

// View renders the chart followed by its legend.
func (c *Chart) View() string {
	var b strings.Builder

	minSize, maxSize, maxMs, ok := c.bounds()
	if !ok {
		msg := "No data points yet."
		if c.hasFailures() {
			msg = "No successful data points."
		}
		b.WriteString(c.theme.Muted.Render(msg))
		b.WriteString("\n")
		b.WriteString(c.legend())
		return b.String()
	}

	plotW := c.width - yLabelWidth - 2
	plotH := c.height

	grid := make([][]plotCell, plotH)
	for i := range grid {
		grid[i] = make([]plotCell, plotW)
		for j := range grid[i] {
			grid[i][j] = plotCell{r: ' ', series: -1}
		}
	}

	col := func(size int) int {
		if maxSize == minSize {
			return 0
		}
		return int(math.Round(float64(size-minSize) / float64(maxSize-minSize) * float64(plotW-1)))
	}
	row := func(ms float64) int {
		r := plotH - 1 - int(math.Round(ms/maxMs*float64(plotH-1)))
		return min(max(r, 0), plotH-1)
	}

	// Traces first so markers win where they overlap.
	for si, s := range c.series {
		prevCol, prevRow := -1, -1
		for _, p := range s.Points {
			if p.Failed() {
				prevCol = -1
				continue
			}
			x, y := col(p.Size), row(p.Millis())
			if prevCol >= 0 && x-prevCol > 1 {
				for xi := prevCol + 1; xi < x; xi++ {
					t := float64(xi-prevCol) / float64(x-prevCol)
					yi := int(math.Round(float64(prevRow) + t*float64(y-prevRow)))
					if grid[yi][xi].r == ' ' {
						grid[yi][xi] = plotCell{r: traceRune, series: si}
					}
				}
			}
			prevCol, prevRow = x, y
		}
	}
	for si, s := range c.series {
		for _, p := range s.Points {
			if p.Failed() {
				grid[plotH-1][col(clampSize(p.Size, minSize, maxSize))] = plotCell{r: errorRune, series: si}
				continue
			}
			grid[row(p.Millis())][col(p.Size)] = plotCell{r: styles.SeriesMarker(si), series: si}
		}
	}

	for i, line := range grid {
		label := ""
		switch i {
		case 0:
			label = formatMs(maxMs)
		case plotH / 2:
			label = formatMs(maxMs * float64(plotH-1-i) / float64(plotH-1))
		case plotH - 1:
			label = formatMs(0)
		}
		b.WriteString(c.theme.AxisLabel.Render(util.PadLeft(label, yLabelWidth)))
		b.WriteString(c.theme.Axis.Render(" |"))
		b.WriteString(c.renderLine(line))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat(" ", yLabelWidth))
	b.WriteString(c.theme.Axis.Render(" +" + strings.Repeat("-", plotW)))
	b.WriteString("\n")

	left := benchmark.FormatSize(minSize)
	right := benchmark.FormatSize(maxSize)
	gap := max(plotW-util.StringWidth(left)-util.StringWidth(right), 1)
	b.WriteString(strings.Repeat(" ", yLabelWidth+2))
	b.WriteString(c.theme.AxisLabel.Render(left + strings.Repeat(" ", gap) + right))
	b.WriteString("\n")

	b.WriteString(c.legend())
	return b.String()
}

// renderLine styles runs of cells that share a series.
func (c *Chart) renderLine(line []plotCell) string {
	var b strings.Builder
	start := 0
	for start < len(line) {
		end := start + 1
		for end < len(line) && line[end].series == line[start].series && line[end].r != errorRune && line[start].r != errorRune {
			end++
		}
		var seg strings.Builder
		for _, cell := range line[start:end] {
			seg.WriteRune(cell.r)
		}
		switch {
		case line[start].r == errorRune:
			b.WriteString(c.theme.ErrorPoint.Render(seg.String()))
		case line[start].series < 0:
			b.WriteString(seg.String())
		default:
			b.WriteString(c.theme.Series(line[start].series).Render(seg.String()))
		}
		start = end
	}
	return b.String()
}

// legend lists each series with its marker, latest value and failures.
func (c *Chart) legend() string {
	if len(c.series) == 0 {
		return ""
	}
	nameW := 0
	for _, s := range c.series {
		nameW = max(nameW, util.StringWidth(s.Name))
	}
	nameW = min(nameW, 32)

	var b strings.Builder
	for si, s := range c.series {
		marker := c.theme.Series(si).Render(string(styles.SeriesMarker(si)))
		b.WriteString(fmt.Sprintf("%s %s  %s\n",
			marker,
			util.PadRight(util.TruncateWidth(s.Name, nameW), nameW),
			c.latest(s),
		))
	}
	return b.String()
}

func (c *Chart) latest(s ChartSeries) string {
	if len(s.Points) == 0 {
		return c.theme.Muted.Render("waiting")
	}
	p := s.Points[len(s.Points)-1]
	failures := 0
	for _, q := range s.Points {
		if q.Failed() {
			failures++
		}
	}
	var out string
	if p.Failed() {
		out = c.theme.StatusError.Render(fmt.Sprintf("error at size %d", p.Size))
	} else {
		out = fmt.Sprintf("%s at size %d", benchmark.FormatDuration(p.Elapsed), p.Size)
	}
	if failures > 0 && !p.Failed() {
		out += c.theme.StatusError.Render(fmt.Sprintf(" (%d failed)", failures))
	}
	return out
}

func (c *Chart) hasFailures() bool {
	for _, s := range c.series {
		for _, p := range s.Points {
			if p.Failed() {
				return true
			}
		}
	}
	return false
}

func clampSize(size, lo, hi int) int {
	return min(max(size, lo), hi)
}

// formatMs formats an axis value in milliseconds.
func formatMs(ms float64) string {
	switch {
	case ms >= 1000:
		return fmt.Sprintf("%.1fs", ms/1000)
	case ms >= 10:
		return fmt.Sprintf("%.0fms", ms)
	default:
		return fmt.Sprintf("%.2fms", ms)
	}
}
