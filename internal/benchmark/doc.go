// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package benchmark defines the data model shared by the opbench runner,
// history store, exporters and dashboard.
//
// A RunGroup describes one sweep dimension (for example matrix size) over
// one or more competing implementations. Each implementation is bound to the
// group as a Run, which carries the Test capability and the chart series the
// dashboard accumulates while a sweep executes.
//
// # Key Types
//
//   - Test: capability to execute one timed trial at a given size
//   - Trial: size, option and parameter record passed to a Test
//   - Run: named Test binding with its accumulated ChartData
//   - RunGroup: sweep bounds, step transform, option variants and runs
//   - SweepResult: owned result container returned by the runner
//   - Comparison: per-size delta between two sweeps
//
// # Usage
//
// Resolve a group and inspect its sweep:
//
//	group, err := benchmark.FindGroup(groups, "pool-ops")
//	for _, step := range group.Steps() {
//	    fmt.Println(step, group.Size(step))
//	}
//
// Validate authored groups before handing them to a UI:
//
//	if err := benchmark.ValidateGroups(groups); err != nil {
//	    log.Printf("run group definitions: %v", err)
//	}
package benchmark
