// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, titles, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, info, key hints
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, completed sweeps
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, failed points
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, canceled sweeps
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// Overlay - Borders, separators, chart axes
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim - Dimmer overlay for less prominent elements
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// SelectionBg - Selected list row
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// CHART SERIES (Catppuccin Latte/Mocha)
// =============================================================================

// SeriesColors are assigned to runs in order and wrap around.
var SeriesColors = []lipgloss.AdaptiveColor{
	{Light: "#1E66F5", Dark: "#89B4FA"}, // Blue
	{Light: "#FE640B", Dark: "#FAB387"}, // Peach
	{Light: "#40A02B", Dark: "#A6E3A1"}, // Green
	{Light: "#8839EF", Dark: "#CBA6F7"}, // Mauve
	{Light: "#D20F39", Dark: "#F38BA8"}, // Red
	{Light: "#04A5E5", Dark: "#89DCEB"}, // Sky
}

// SeriesColor returns the color of the i-th series.
func SeriesColor(i int) lipgloss.AdaptiveColor {
	if i < 0 {
		i = -i
	}
	return SeriesColors[i%len(SeriesColors)]
}

// SeriesMarkers are the plot glyphs of each series, so curves stay
// distinguishable without color.
var SeriesMarkers = []rune{'*', 'o', '+', 'x', '#', '@'}

// SeriesMarker returns the plot glyph of the i-th series.
func SeriesMarker(i int) rune {
	if i < 0 {
		i = -i
	}
	return SeriesMarkers[i%len(SeriesMarkers)]
}

// =============================================================================
// ACCESSIBILITY
// =============================================================================

// StatusIndicatorSet contains text indicators for status states, shown next
// to colors for colorblind users.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators provides ASCII-only shape indicators.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}
