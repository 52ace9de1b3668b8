// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runner sweeps a benchmark run group over its steps and returns the
// measured curves as an owned benchmark.SweepResult.
//
// For every step, each run executes its warmup trials, then the timed trials
// whose mean becomes the step's chart point. Points are reported through a
// ProgressFunc as they are produced. The runner never writes to
// Run.ChartData; consumers that want live series append what they receive.
//
// A run whose trial fails records an error point and is skipped for the
// remaining steps. A run slower than Options.MaxTrialDuration stops after
// recording that point. Canceling the context returns the partial result
// with Canceled set.
//
// # Key Types
//
//   - Runner: executes one sweep at a time
//   - Options: warmup/trial counts, timeouts and pacing
//   - Progress: one emitted point with sweep position
//   - Metrics: Prometheus collectors for trials and sweeps
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	r := runner.New(runner.DefaultOptions(), runner.WithRegisterer(reg))
//	result, err := r.Sweep(ctx, group, "", func(p runner.Progress) {
//	    fmt.Printf("%s %d: %s\n", p.Run, p.Point.Size, p.Point.Elapsed)
//	})
package runner
