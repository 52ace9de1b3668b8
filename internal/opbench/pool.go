// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// Pooling variants.
const (
	PoolMax = "max"
	PoolAvg = "avg"
)

// PoolBenchmark times max or average pooling over a [size, size, depth]
// input with "same" padding.
type PoolBenchmark struct {
	opTest
}

// NewPoolBenchmark returns a pooling test on be.
func NewPoolBenchmark(be tensor.Backend) *PoolBenchmark {
	return &PoolBenchmark{opTest{backend: be}}
}

// Run implements benchmark.Test.
func (b *PoolBenchmark) Run(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
	if err := checkSize(trial.Size); err != nil {
		return 0, err
	}
	var kernel func(context.Context, tensor.Backend, *tensor.Tensor, int, int, tensor.Padding) (*tensor.Tensor, error)
	switch trial.Option {
	case PoolMax:
		kernel = tensor.MaxPool
	case PoolAvg:
		kernel = tensor.AvgPool
	default:
		return 0, fmt.Errorf("%w: pool %q", benchmark.ErrUnknownOption, trial.Option)
	}

	p, err := paramsAs[benchmark.PoolParams](trial.Params)
	if err != nil {
		return 0, err
	}
	if err := positive(map[string]int{"depth": p.Depth, "field_size": p.FieldSize, "stride": p.Stride}); err != nil {
		return 0, err
	}

	rng := b.nextRand()
	x := b.upload(rng, -1, 1, trial.Size, trial.Size, p.Depth)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return kernel(ctx, b.backend, x, p.FieldSize, p.Stride, tensor.PadSame)
	})
}
