// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"fmt"
	"math"
)

// BatchNormEpsilon is added to the variance before taking its square root.
const BatchNormEpsilon = 0.001

// BatchNorm3D normalizes x [h, w, c] per channel:
// (x - mean) * scale / sqrt(variance + eps) + offset. mean, variance,
// offset and scale have shape [c]; offset and scale may be nil.
func BatchNorm3D(ctx context.Context, be Backend, x, mean, variance, offset, scale *Tensor) (*Tensor, error) {
	if err := requireRank("x", x, 3); err != nil {
		return nil, err
	}
	c := x.Shape[2]
	for name, p := range map[string]*Tensor{"mean": mean, "variance": variance} {
		if p == nil || p.Size() != c {
			return nil, fmt.Errorf("%w: %s must have %d values", ErrShapeMismatch, name, c)
		}
	}
	if offset != nil && offset.Size() != c {
		return nil, fmt.Errorf("%w: offset must have %d values", ErrShapeMismatch, c)
	}
	if scale != nil && scale.Size() != c {
		return nil, fmt.Errorf("%w: scale must have %d values", ErrShapeMismatch, c)
	}

	// Fold the per-channel parameters into one multiply-add.
	mul := make([]float32, c)
	add := make([]float32, c)
	for ch := 0; ch < c; ch++ {
		s := float32(1)
		if scale != nil {
			s = scale.Data[ch]
		}
		inv := s / float32(math.Sqrt(float64(variance.Data[ch])+BatchNormEpsilon))
		mul[ch] = inv
		add[ch] = -mean.Data[ch] * inv
		if offset != nil {
			add[ch] += offset.Data[ch]
		}
	}

	out := New(x.Shape...)
	pixels := x.Shape[0] * x.Shape[1]
	err := be.ParallelFor(ctx, pixels, func(lo, hi int) {
		for p := lo; p < hi; p++ {
			for ch := 0; ch < c; ch++ {
				i := p*c + ch
				out.Data[i] = x.Data[i]*mul[ch] + add[ch]
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
