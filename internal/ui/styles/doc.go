// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the opbench
// dashboard. All colors use Lip Gloss AdaptiveColor for automatic light/dark
// detection.
//
// # Key Types
//
//   - Theme: the styles every view renders with
//   - SeriesColors: distinct colors assigned to chart series in run order
//
// # Usage
//
//	theme := styles.NewTheme("auto", false)
//	fmt.Println(theme.Title.Render("Pool Ops"))
package styles
