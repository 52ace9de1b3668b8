// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// UnaryOpsBenchmark times one element-wise op, picked by the trial option,
// over a [size, size] input drawn from the op's domain.
type UnaryOpsBenchmark struct {
	opTest
}

// NewUnaryOpsBenchmark returns an element-wise test on be.
func NewUnaryOpsBenchmark(be tensor.Backend) *UnaryOpsBenchmark {
	return &UnaryOpsBenchmark{opTest{backend: be}}
}

// Run implements benchmark.Test.
func (b *UnaryOpsBenchmark) Run(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
	if err := checkSize(trial.Size); err != nil {
		return 0, err
	}
	op := tensor.UnaryOp(trial.Option)
	lo, hi, err := op.Domain()
	if err != nil {
		if errors.Is(err, tensor.ErrUnknownOp) {
			return 0, fmt.Errorf("%w: unary op %q", benchmark.ErrUnknownOption, trial.Option)
		}
		return 0, err
	}

	shape, err := elementwiseShape(trial)
	if err != nil {
		return 0, err
	}

	x := b.upload(b.nextRand(), lo, hi, shape...)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.Unary(ctx, b.backend, op, x)
	})
}

// elementwiseShape maps a rank to [size*size] or [size, size]. A missing
// record means rank 2.
func elementwiseShape(trial benchmark.Trial) ([]int, error) {
	rank := 2
	if trial.Params != nil {
		p, err := paramsAs[benchmark.ElementwiseParams](trial.Params)
		if err != nil {
			return nil, err
		}
		rank = p.Rank
	}
	return shapeForRank(trial.Size, rank)
}

func shapeForRank(size, rank int) ([]int, error) {
	switch rank {
	case 1:
		return []int{size * size}, nil
	case 2:
		return []int{size, size}, nil
	default:
		return nil, fmt.Errorf("%w: rank must be 1 or 2, got %d", ErrBadParams, rank)
	}
}
