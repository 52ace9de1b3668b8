// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable rendering components for the opbench
// dashboard and CLI.
//
// # Key Types
//
//   - Chart: ASCII line chart of every run's series, x = size, y = ms
//   - SweepView: summary and comparison tables for a sweep
//
// # Usage
//
//	chart := components.NewChart(80, 12, theme)
//	chart.SetRuns(group.Runs)
//	fmt.Println(chart.View())
package components
