// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package opbench declares the benchmark run groups and the timed tests they
// bind.
//
// GetRunGroups builds the fixed catalogue of six groups (batch norm, matmul,
// convolution, pooling, unary ops, reductions). Every call returns a fresh
// object graph: new Run values, new parameter maps, and empty chart series,
// so callers may mutate what they receive.
//
// # Key Types
//
//   - MatmulBenchmark, ConvBenchmark, PoolBenchmark: shaped-op tests
//   - UnaryOpsBenchmark, ReductionOpsBenchmark: option-driven op tests
//   - BatchNorm3DBenchmark: per-channel normalization test
//   - Backends: the CPU and GPU backends a catalogue is built against
//
// # Usage
//
//	groups := opbench.GetRunGroups()
//	pool, _ := benchmark.FindGroup(groups, "pool-ops")
//	elapsed, err := pool.Runs[0].Test.Run(ctx, benchmark.Trial{
//	    Size:   pool.Size(64),
//	    Option: pool.SelectedOption,
//	    Params: pool.SelectedParams(),
//	})
package opbench
