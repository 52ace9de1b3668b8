// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"fmt"
	"math"
)

// ReduceOp names a full reduction.
type ReduceOp string

const (
	ReduceMax       ReduceOp = "max"
	ReduceMin       ReduceOp = "min"
	ReduceArgMax    ReduceOp = "argMax"
	ReduceArgMin    ReduceOp = "argMin"
	ReduceSum       ReduceOp = "sum"
	ReduceLogSumExp ReduceOp = "logSumExp"
)

// ReduceOps lists the supported reductions.
func ReduceOps() []ReduceOp {
	return []ReduceOp{ReduceMax, ReduceMin, ReduceArgMax, ReduceArgMin, ReduceSum, ReduceLogSumExp}
}

// reduceBlocks fixes the partial-reduction layout independently of the
// backend so results do not depend on the worker count.
const reduceBlocks = 64

type partial struct {
	val float32
	idx int
}

// Reduce collapses every element of x into a tensor of shape [1]. argMax and
// argMin return the flat index of the first extreme value.
func Reduce(ctx context.Context, be Backend, op ReduceOp, x *Tensor) (*Tensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: x is nil", ErrInvalidShape)
	}
	n := x.Size()
	if n == 0 {
		return nil, fmt.Errorf("%w: cannot reduce an empty tensor", ErrInvalidShape)
	}

	switch op {
	case ReduceMax, ReduceArgMax:
		p, err := reduceBlocked(ctx, be, x.Data, func(a, b float32) bool { return b > a })
		if err != nil {
			return nil, err
		}
		return scalar(op == ReduceArgMax, p), nil
	case ReduceMin, ReduceArgMin:
		p, err := reduceBlocked(ctx, be, x.Data, func(a, b float32) bool { return b < a })
		if err != nil {
			return nil, err
		}
		return scalar(op == ReduceArgMin, p), nil
	case ReduceSum:
		s, err := sumBlocked(ctx, be, x.Data, 0, false)
		if err != nil {
			return nil, err
		}
		return &Tensor{Shape: []int{1}, Data: []float32{s}}, nil
	case ReduceLogSumExp:
		p, err := reduceBlocked(ctx, be, x.Data, func(a, b float32) bool { return b > a })
		if err != nil {
			return nil, err
		}
		s, err := sumBlocked(ctx, be, x.Data, p.val, true)
		if err != nil {
			return nil, err
		}
		v := float64(p.val) + math.Log(float64(s))
		return &Tensor{Shape: []int{1}, Data: []float32{float32(v)}}, nil
	default:
		return nil, fmt.Errorf("%w: reduction %q", ErrUnknownOp, op)
	}
}

func scalar(index bool, p partial) *Tensor {
	if index {
		return &Tensor{Shape: []int{1}, Data: []float32{float32(p.idx)}}
	}
	return &Tensor{Shape: []int{1}, Data: []float32{p.val}}
}

func blockBounds(n, blocks, b int) (lo, hi int) {
	size := (n + blocks - 1) / blocks
	return min(b*size, n), min((b+1)*size, n)
}

// reduceBlocked finds the first element for which better never fires
// against any later element.
func reduceBlocked(ctx context.Context, be Backend, data []float32, better func(cur, cand float32) bool) (partial, error) {
	blocks := min(len(data), reduceBlocks)
	parts := make([]partial, blocks)
	err := be.ParallelFor(ctx, blocks, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			start, end := blockBounds(len(data), blocks, b)
			if start >= end {
				parts[b] = partial{idx: -1}
				continue
			}
			p := partial{val: data[start], idx: start}
			for i := start + 1; i < end; i++ {
				if better(p.val, data[i]) {
					p = partial{val: data[i], idx: i}
				}
			}
			parts[b] = p
		}
	})
	if err != nil {
		return partial{}, err
	}

	best := partial{idx: -1}
	for _, p := range parts {
		if p.idx < 0 {
			continue
		}
		if best.idx < 0 || better(best.val, p.val) {
			best = p
		}
	}
	return best, nil
}

func sumBlocked(ctx context.Context, be Backend, data []float32, shift float32, exp bool) (float32, error) {
	blocks := min(len(data), reduceBlocks)
	parts := make([]float64, blocks)
	err := be.ParallelFor(ctx, blocks, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			start, end := blockBounds(len(data), blocks, b)
			var acc float64
			for i := start; i < end; i++ {
				if exp {
					acc += math.Exp(float64(data[i] - shift))
				} else {
					acc += float64(data[i])
				}
			}
			parts[b] = acc
		}
	})
	if err != nil {
		return 0, err
	}

	var total float64
	for _, p := range parts {
		total += p
	}
	return float32(total), nil
}
