// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard implements the interactive opbench terminal UI.
//
// The dashboard lists the run groups, lets the user pick an option, and
// sweeps the selected group with a runner. Points stream in through a
// channel that a tea.Cmd drains, and are appended to each Run's ChartData on
// the Bubble Tea update goroutine, so the chart grows while the sweep runs.
//
// # Key Types
//
//   - Model: the Bubble Tea model
//   - Config: groups, runner, history store and display settings
//   - KeyMap: key bindings shown by the help view
//
// # Usage
//
//	m := dashboard.New(ctx, dashboard.Config{Groups: groups, Runner: r})
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
package dashboard
