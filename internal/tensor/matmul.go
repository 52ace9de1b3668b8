// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"fmt"
)

// MatMul multiplies a [m, k] by b [k, n] into [m, n]. Rows of the result are
// distributed across the backend.
func MatMul(ctx context.Context, be Backend, a, b *Tensor) (*Tensor, error) {
	if err := requireRank("a", a, 2); err != nil {
		return nil, err
	}
	if err := requireRank("b", b, 2); err != nil {
		return nil, err
	}
	m, k := a.Shape[0], a.Shape[1]
	if b.Shape[0] != k {
		return nil, fmt.Errorf("%w: matmul %v x %v", ErrShapeMismatch, a.Shape, b.Shape)
	}
	n := b.Shape[1]

	out := New(m, n)
	err := be.ParallelFor(ctx, m, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			row := out.Data[i*n : (i+1)*n]
			for p := 0; p < k; p++ {
				av := a.Data[i*k+p]
				if av == 0 {
					continue
				}
				bRow := b.Data[p*n : (p+1)*n]
				for j, bv := range bRow {
					row[j] += av * bv
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
