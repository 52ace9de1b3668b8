// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components of the dashboard.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	App      lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Panel    lipgloss.Style

	// ==========================================================================
	// GROUP LIST
	// ==========================================================================

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	OptionActive     lipgloss.Style
	OptionInactive   lipgloss.Style

	// ==========================================================================
	// CHART
	// ==========================================================================

	Axis       lipgloss.Style
	AxisLabel  lipgloss.Style
	ErrorPoint lipgloss.Style

	// ==========================================================================
	// STATUS
	// ==========================================================================

	Spinner      lipgloss.Style
	StatusOK     lipgloss.Style
	StatusWarn   lipgloss.Style
	StatusError  lipgloss.Style
	Muted        lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; auto asks the
// terminal for its background. noColor renders every style as plain text.
func NewTheme(mode string, noColor bool) *Theme {
	profile := termenv.ColorProfile()
	if noColor {
		profile = termenv.Ascii
	}

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// Apply makes lipgloss render with this theme's profile and background.
func (t *Theme) Apply() {
	lipgloss.SetColorProfile(t.ColorProfile)
	lipgloss.SetHasDarkBackground(t.IsDark)
}

// Series returns the style of the i-th chart series.
func (t *Theme) Series(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SeriesColor(i))
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)

	t.ListItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ListItemSelected = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SelectionBg).
		Bold(true)

	t.OptionActive = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Underline(true)

	t.OptionInactive = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Axis = lipgloss.NewStyle().
		Foreground(OverlayDim)

	t.AxisLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ErrorPoint = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Cyan)

	t.StatusOK = lipgloss.NewStyle().
		Foreground(Emerald)

	t.StatusWarn = lipgloss.NewStyle().
		Foreground(Amber)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}
