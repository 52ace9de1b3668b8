// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tensor provides the dense float32 kernels measured by opbench.
//
// Kernels are written once against the Backend interface. The CPU backend
// runs every kernel inline on the calling goroutine. The GPU backend models a
// data-parallel device: tensors are copied to device memory on Upload and
// back on Download, and each kernel is split across a bounded worker pool.
// Both backends run the same arithmetic in the same order, so their results
// are bit-identical.
//
// # Key Types
//
//   - Tensor: row-major float32 data with a shape
//   - Backend: execution strategy (CPU or GPU)
//   - Padding: "same" or "valid" window padding
//   - UnaryOp, ReduceOp: named element-wise and reduction operations
//
// # Usage
//
//	rng := tensor.NewRand(42)
//	gpu := tensor.GPU(0)
//	a := gpu.Upload(tensor.RandUniform(rng, -1, 1, 256, 256))
//	b := gpu.Upload(tensor.RandUniform(rng, -1, 1, 256, 256))
//	c, err := tensor.MatMul(ctx, gpu, a, b)
//	values := gpu.Download(c)
package tensor
