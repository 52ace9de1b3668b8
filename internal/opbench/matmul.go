// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// MatmulBenchmark times matmul([size, size], [size, size]).
type MatmulBenchmark struct {
	opTest
}

// NewMatmulBenchmark returns a matmul test on be.
func NewMatmulBenchmark(be tensor.Backend) *MatmulBenchmark {
	return &MatmulBenchmark{opTest{backend: be}}
}

// Run implements benchmark.Test.
func (b *MatmulBenchmark) Run(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
	if err := checkSize(trial.Size); err != nil {
		return 0, err
	}
	rng := b.nextRand()
	x := b.upload(rng, -1, 1, trial.Size, trial.Size)
	y := b.upload(rng, -1, 1, trial.Size, trial.Size)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.MatMul(ctx, b.backend, x, y)
	})
}
