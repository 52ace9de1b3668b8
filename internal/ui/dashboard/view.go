// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/util"
)

// listWidth is the column width of the group list.
const listWidth = 28

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("opbench"))
	b.WriteString(m.theme.Muted.Render("  operation benchmarks"))
	b.WriteString("\n\n")

	left := m.theme.Panel.Width(listWidth).Render(m.renderGroupList())
	right := m.renderDetail()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	b.WriteString(m.renderProgress())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return m.theme.App.Render(b.String())
}

func (m Model) renderGroupList() string {
	if len(m.groups) == 0 {
		return m.theme.Muted.Render("no groups")
	}
	var b strings.Builder
	for i := range m.groups {
		name := util.TruncateWidth(shortName(m.groups[i].Name), listWidth-4)
		if i == m.cursor {
			b.WriteString(m.theme.ListItemSelected.Render("> " + name))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + name))
		}
		if i < len(m.groups)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderDetail() string {
	g := m.Selected()
	if g == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(g.Name))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("steps %d..%d by %d, sizes %s..%s",
		g.Min, g.Max, g.StepSize,
		benchmark.FormatSize(g.Size(g.Min)), benchmark.FormatSize(g.Size(g.Max)))))
	b.WriteString("\n")

	if g.HasOptions() {
		b.WriteString(m.renderOptions(g))
		b.WriteString("\n")
	}
	if params := g.SelectedParams(); params != nil {
		if data, err := json.Marshal(params); err == nil {
			b.WriteString(m.theme.Muted.Render("params " + string(data)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.chart.View())

	if m.last != nil && m.state == stateIdle {
		b.WriteString("\n")
		b.WriteString(m.summary.RenderSummary(m.last))
	}
	return b.String()
}

// renderOptions shows a window of options around the selected one.
func (m Model) renderOptions(g *benchmark.RunGroup) string {
	const window = 7
	idx := 0
	for i, opt := range g.Options {
		if opt == g.SelectedOption {
			idx = i
			break
		}
	}
	start := max(0, min(idx-window/2, len(g.Options)-window))
	end := min(len(g.Options), start+window)

	parts := make([]string, 0, end-start+2)
	if start > 0 {
		parts = append(parts, m.theme.Muted.Render("<"))
	}
	for i := start; i < end; i++ {
		if i == idx {
			parts = append(parts, m.theme.OptionActive.Render(g.Options[i]))
		} else {
			parts = append(parts, m.theme.OptionInactive.Render(g.Options[i]))
		}
	}
	if end < len(g.Options) {
		parts = append(parts, m.theme.Muted.Render(">"))
	}
	return fmt.Sprintf("option %s  %s", strings.Join(parts, " "),
		m.theme.Muted.Render(fmt.Sprintf("(%d/%d)", idx+1, len(g.Options))))
}

func (m Model) renderProgress() string {
	if m.state != stateRunning {
		return ""
	}
	p := m.lastProgress
	line := m.spinner.View() + " " + m.progress.ViewAs(p.Fraction())
	if p.Run != "" {
		line += m.theme.Muted.Render(fmt.Sprintf("  %s size %d  %d/%d", p.Run, p.Point.Size, p.Done, p.Total))
	}
	return line
}

func (m Model) renderStatus() string {
	switch m.statusKind {
	case statusOK:
		return m.theme.StatusOK.Render(m.status)
	case statusWarn:
		return m.theme.StatusWarn.Render(m.status)
	case statusError:
		return m.theme.StatusError.Render(m.status)
	default:
		return m.theme.Muted.Render(m.status)
	}
}

// shortName drops the shape description after the first colon.
func shortName(name string) string {
	if i := strings.Index(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}
