// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// ReductionOpsBenchmark times a full reduction, picked by the trial option,
// of size*size values.
type ReductionOpsBenchmark struct {
	opTest
}

// NewReductionOpsBenchmark returns a reduction test on be.
func NewReductionOpsBenchmark(be tensor.Backend) *ReductionOpsBenchmark {
	return &ReductionOpsBenchmark{opTest{backend: be}}
}

// Run implements benchmark.Test.
func (b *ReductionOpsBenchmark) Run(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
	if err := checkSize(trial.Size); err != nil {
		return 0, err
	}
	op := tensor.ReduceOp(trial.Option)
	if !slices.Contains(tensor.ReduceOps(), op) {
		return 0, fmt.Errorf("%w: reduction %q", benchmark.ErrUnknownOption, trial.Option)
	}

	rank := 1
	if trial.Params != nil {
		p, err := paramsAs[benchmark.ReductionParams](trial.Params)
		if err != nil {
			return 0, err
		}
		rank = p.Rank
	}
	shape, err := shapeForRank(trial.Size, rank)
	if err != nil {
		return 0, err
	}

	x := b.upload(b.nextRand(), -1, 1, shape...)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.Reduce(ctx, b.backend, op, x)
	})
}
