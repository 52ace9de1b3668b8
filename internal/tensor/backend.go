// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Backend executes kernels. ParallelFor invokes fn over disjoint [lo, hi)
// ranges that together cover [0, n).
type Backend interface {
	Name() string
	ParallelFor(ctx context.Context, n int, fn func(lo, hi int)) error
	// Upload moves a host tensor to backend memory.
	Upload(t *Tensor) *Tensor
	// Download reads a backend tensor back to host memory.
	Download(t *Tensor) []float32
}

// =============================================================================
// CPU
// =============================================================================

type cpuBackend struct{}

// CPU returns the inline backend.
func CPU() Backend {
	return cpuBackend{}
}

func (cpuBackend) Name() string { return "cpu" }

// cpuChunks is how many pieces the inline backend splits a kernel into.
// ctx is checked between pieces.
const cpuChunks = 64

func (cpuBackend) ParallelFor(ctx context.Context, n int, fn func(lo, hi int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	size := max(1, (n+cpuChunks-1)/cpuChunks)
	for lo := 0; lo < n; lo += size {
		if lo > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fn(lo, min(lo+size, n))
	}
	return nil
}

// Upload is a no-op: host memory is backend memory.
func (cpuBackend) Upload(t *Tensor) *Tensor { return t }

func (cpuBackend) Download(t *Tensor) []float32 { return t.Data }

// =============================================================================
// GPU
// =============================================================================

// chunksPerWorker oversubscribes the pool so uneven chunks balance out.
const chunksPerWorker = 4

type gpuBackend struct {
	workers int
}

// GPU returns the data-parallel backend. workers <= 0 uses GOMAXPROCS.
func GPU(workers int) Backend {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &gpuBackend{workers: workers}
}

func (g *gpuBackend) Name() string { return "gpu" }

func (g *gpuBackend) ParallelFor(ctx context.Context, n int, fn func(lo, hi int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}

	chunks := min(n, g.workers*chunksPerWorker)
	size := (n + chunks - 1) / chunks

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for lo := 0; lo < n; lo += size {
		lo, hi := lo, min(lo+size, n)
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return eg.Wait()
}

// Upload copies the tensor into device memory.
func (g *gpuBackend) Upload(t *Tensor) *Tensor {
	return t.Clone()
}

// Download copies device memory back to the host.
func (g *gpuBackend) Download(t *Tensor) []float32 {
	out := make([]float32, len(t.Data))
	copy(out, t.Data)
	return out
}
