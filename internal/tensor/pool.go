// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"math"
)

// MaxPool takes the maximum of each field x field window of x [h, w, c].
func MaxPool(ctx context.Context, be Backend, x *Tensor, field, stride int, pad Padding) (*Tensor, error) {
	return pool(ctx, be, x, field, stride, pad, true)
}

// AvgPool averages each window of x [h, w, c]. Padded positions are not
// counted in the divisor.
func AvgPool(ctx context.Context, be Backend, x *Tensor, field, stride int, pad Padding) (*Tensor, error) {
	return pool(ctx, be, x, field, stride, pad, false)
}

func pool(ctx context.Context, be Backend, x *Tensor, field, stride int, pad Padding, useMax bool) (*Tensor, error) {
	if err := requireRank("x", x, 3); err != nil {
		return nil, err
	}
	h, w, c := x.Shape[0], x.Shape[1], x.Shape[2]
	oh, padT, err := windowGeometry(h, field, stride, pad)
	if err != nil {
		return nil, err
	}
	ow, padL, err := windowGeometry(w, field, stride, pad)
	if err != nil {
		return nil, err
	}

	out := New(oh, ow, c)
	err = be.ParallelFor(ctx, oh, func(lo, hi int) {
		for oy := lo; oy < hi; oy++ {
			y0 := max(oy*stride-padT, 0)
			y1 := min(oy*stride-padT+field, h)
			for ox := 0; ox < ow; ox++ {
				x0 := max(ox*stride-padL, 0)
				x1 := min(ox*stride-padL+field, w)
				dst := out.Data[(oy*ow+ox)*c : (oy*ow+ox+1)*c]
				for ch := range dst {
					var acc float32
					if useMax {
						acc = float32(math.Inf(-1))
					}
					for iy := y0; iy < y1; iy++ {
						for ix := x0; ix < x1; ix++ {
							v := x.Data[(iy*w+ix)*c+ch]
							if useMax {
								if v > acc {
									acc = v
								}
							} else {
								acc += v
							}
						}
					}
					if !useMax {
						if count := (y1 - y0) * (x1 - x0); count > 0 {
							acc /= float32(count)
						}
					}
					dst[ch] = acc
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
