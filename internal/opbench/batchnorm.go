// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// BatchNormDepth is the channel count of the batch norm input.
const BatchNormDepth = 8

// BatchNorm3DBenchmark times batch normalization of a [size, size, 8] input
// with random per-channel statistics.
type BatchNorm3DBenchmark struct {
	opTest
}

// NewBatchNorm3DBenchmark returns a batch norm test on be.
func NewBatchNorm3DBenchmark(be tensor.Backend) *BatchNorm3DBenchmark {
	return &BatchNorm3DBenchmark{opTest{backend: be}}
}

// Run implements benchmark.Test.
func (b *BatchNorm3DBenchmark) Run(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
	if err := checkSize(trial.Size); err != nil {
		return 0, err
	}
	rng := b.nextRand()
	x := b.upload(rng, -1, 1, trial.Size, trial.Size, BatchNormDepth)
	mean := b.upload(rng, -1, 1, BatchNormDepth)
	variance := b.upload(rng, 0.5, 1.5, BatchNormDepth)
	offset := b.upload(rng, -1, 1, BatchNormDepth)
	scale := b.upload(rng, 0.5, 1.5, BatchNormDepth)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.BatchNorm3D(ctx, b.backend, x, mean, variance, offset, scale)
	})
}
