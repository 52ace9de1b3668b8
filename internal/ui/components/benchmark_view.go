// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/ui/styles"
	"github.com/jeranaias/opbench/internal/util"
)

// =============================================================================
// SWEEP VIEW
// =============================================================================

// SweepView renders sweep results as text tables for the dashboard and CLI.
type SweepView struct {
	width int
	theme *styles.Theme
}

// NewSweepView creates a new sweep view. A nil theme renders with the default
// dark theme.
func NewSweepView(width int, theme *styles.Theme) *SweepView {
	if theme == nil {
		theme = styles.NewTheme("dark", false)
	}
	return &SweepView{width: width, theme: theme}
}

// SetWidth updates the view width.
func (v *SweepView) SetWidth(width int) {
	v.width = width
}

// RenderHeader renders the group, option and status line of a sweep.
func (v *SweepView) RenderHeader(result *benchmark.SweepResult) string {
	if result == nil {
		return "No sweep result available"
	}

	var b strings.Builder
	b.WriteString(v.theme.Title.Render(result.Group))
	b.WriteString("\n")

	var meta []string
	if result.Option != "" {
		meta = append(meta, "option "+result.Option)
	}
	if result.ID != "" {
		meta = append(meta, "id "+util.TruncateRunesNoEllipsis(result.ID, 8))
	}
	if !result.StartedAt.IsZero() {
		meta = append(meta, result.StartedAt.Format("2006-01-02 15:04:05"))
	}
	meta = append(meta, benchmark.FormatDuration(result.Duration()))
	b.WriteString(v.theme.Subtitle.Render(strings.Join(meta, "  ")))
	b.WriteString("  ")
	b.WriteString(v.status(result))
	b.WriteString("\n")
	return b.String()
}

func (v *SweepView) status(result *benchmark.SweepResult) string {
	switch {
	case result.Canceled:
		return v.theme.StatusWarn.Render(styles.StatusIndicators.Warning + " canceled")
	case result.FailureCount() > 0:
		return v.theme.StatusError.Render(fmt.Sprintf("%s %d failed", styles.StatusIndicators.Error, result.FailureCount()))
	default:
		return v.theme.StatusOK.Render(styles.StatusIndicators.Success)
	}
}

// summaryColumns are the headers of the summary table.
var summaryColumns = []string{"Run", "Points", "Failed", "Min", "Mean", "Max", "Largest"}

// RenderSummary renders one row of statistics per run.
func (v *SweepView) RenderSummary(result *benchmark.SweepResult) string {
	if result == nil {
		return ""
	}
	summaries := result.Summarize()
	if len(summaries) == 0 {
		return v.theme.Muted.Render("No runs recorded.") + "\n"
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Run,
			fmt.Sprintf("%d", s.Points),
			fmt.Sprintf("%d", s.Failures),
			benchmark.FormatDuration(s.Min),
			benchmark.FormatDuration(s.Mean),
			benchmark.FormatDuration(s.Max),
			benchmark.FormatSize(s.LargestSize),
		})
	}
	return v.table(summaryColumns, rows)
}

// RenderComparison renders per-size deltas, highlighting regressions above
// thresholdPct.
func (v *SweepView) RenderComparison(cmps []benchmark.Comparison, thresholdPct float64) string {
	if len(cmps) == 0 {
		return v.theme.Muted.Render("No comparable points.") + "\n"
	}

	rows := make([][]string, 0, len(cmps))
	for _, c := range cmps {
		diff := benchmark.FormatPercent(c.DiffPct)
		switch {
		case c.DiffPct > thresholdPct:
			diff = v.theme.StatusError.Render(diff)
		case c.Faster():
			diff = v.theme.StatusOK.Render(diff)
		}
		rows = append(rows, []string{
			c.Run,
			benchmark.FormatSize(c.Size),
			benchmark.FormatDuration(c.Previous),
			benchmark.FormatDuration(c.Current),
			diff,
		})
	}

	var b strings.Builder
	b.WriteString(v.table([]string{"Run", "Size", "Previous", "Current", "Change"}, rows))
	if n := len(benchmark.Regressions(cmps, thresholdPct)); n > 0 {
		b.WriteString(v.theme.StatusError.Render(fmt.Sprintf("%s %d regression(s) above %s", styles.StatusIndicators.Warning, n, benchmark.FormatPercent(thresholdPct))))
		b.WriteString("\n")
	}
	return b.String()
}

// table lays out rows in columns sized to their widest cell. The first column
// is left aligned, the rest right aligned.
func (v *SweepView) table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = util.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], visibleWidth(cell))
		}
	}
	if widths[0] > 32 {
		widths[0] = 32
	}

	var b strings.Builder
	line := func(cells []string, render func(string) string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == 0 {
				b.WriteString(render(util.PadRight(util.TruncateWidth(cell, widths[0]), widths[0])))
				continue
			}
			pad := max(widths[i]-visibleWidth(cell), 0)
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(render(cell))
		}
		b.WriteString("\n")
	}

	line(header, func(s string) string { return v.theme.ShortcutKey.Render(s) })
	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * (len(widths) - 1)
	if v.width > 0 {
		total = min(total, v.width)
	}
	b.WriteString(v.theme.Axis.Render(strings.Repeat("-", total)))
	b.WriteString("\n")
	for _, row := range rows {
		line(row, func(s string) string { return s })
	}
	return b.String()
}
