// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"fmt"
)

// Padding selects how windows treat image borders.
type Padding string

const (
	PadSame  Padding = "same"
	PadValid Padding = "valid"
)

// windowGeometry returns the output extent and the leading padding of a
// sliding window along one axis.
func windowGeometry(in, field, stride int, pad Padding) (out, before int, err error) {
	if field <= 0 || stride <= 0 {
		return 0, 0, fmt.Errorf("%w: field %d stride %d", ErrInvalidShape, field, stride)
	}
	switch pad {
	case PadSame:
		out = (in + stride - 1) / stride
		total := max((out-1)*stride+field-in, 0)
		return out, total / 2, nil
	case PadValid:
		if in < field {
			return 0, 0, fmt.Errorf("%w: input %d smaller than window %d with valid padding", ErrShapeMismatch, in, field)
		}
		return (in-field)/stride + 1, 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: padding %q", ErrUnknownOp, pad)
	}
}

// OutputSize returns the extent of a sliding window's output along one axis.
func OutputSize(in, field, stride int, pad Padding) (int, error) {
	out, _, err := windowGeometry(in, field, stride, pad)
	return out, err
}

// Conv2D convolves x [h, w, inC] with filter [fh, fw, inC, outC].
func Conv2D(ctx context.Context, be Backend, x, filter *Tensor, stride int, pad Padding) (*Tensor, error) {
	if err := requireRank("x", x, 3); err != nil {
		return nil, err
	}
	if err := requireRank("filter", filter, 4); err != nil {
		return nil, err
	}
	h, w, inC := x.Shape[0], x.Shape[1], x.Shape[2]
	fh, fw, fc, outC := filter.Shape[0], filter.Shape[1], filter.Shape[2], filter.Shape[3]
	if fc != inC {
		return nil, fmt.Errorf("%w: conv2d input depth %d, filter depth %d", ErrShapeMismatch, inC, fc)
	}
	oh, padT, err := windowGeometry(h, fh, stride, pad)
	if err != nil {
		return nil, err
	}
	ow, padL, err := windowGeometry(w, fw, stride, pad)
	if err != nil {
		return nil, err
	}

	out := New(oh, ow, outC)
	err = be.ParallelFor(ctx, oh, func(lo, hi int) {
		for oy := lo; oy < hi; oy++ {
			for ox := 0; ox < ow; ox++ {
				dst := out.Data[(oy*ow+ox)*outC : (oy*ow+ox+1)*outC]
				for fy := 0; fy < fh; fy++ {
					iy := oy*stride + fy - padT
					if iy < 0 || iy >= h {
						continue
					}
					for fx := 0; fx < fw; fx++ {
						ix := ox*stride + fx - padL
						if ix < 0 || ix >= w {
							continue
						}
						src := x.Data[(iy*w+ix)*inC : (iy*w+ix+1)*inC]
						for c, xv := range src {
							wOff := ((fy*fw+fx)*inC + c) * outC
							for d := range dst {
								dst[d] += xv * filter.Data[wOff+d]
							}
						}
					}
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Conv2DTranspose computes the input-shaped result of a transposed
// convolution: dy [oh, ow, outC] with filter [fh, fw, inC, outC] produces
// [outShape[0], outShape[1], inC]. Each output element gathers the dy
// positions its forward window touched.
func Conv2DTranspose(ctx context.Context, be Backend, dy, filter *Tensor, outShape [3]int, stride int, pad Padding) (*Tensor, error) {
	if err := requireRank("dy", dy, 3); err != nil {
		return nil, err
	}
	if err := requireRank("filter", filter, 4); err != nil {
		return nil, err
	}
	h, w, inC := outShape[0], outShape[1], outShape[2]
	fh, fw, fc, outC := filter.Shape[0], filter.Shape[1], filter.Shape[2], filter.Shape[3]
	if fc != inC || dy.Shape[2] != outC {
		return nil, fmt.Errorf("%w: conv2dTranspose dy %v filter %v output %v", ErrShapeMismatch, dy.Shape, filter.Shape, outShape)
	}
	oh, padT, err := windowGeometry(h, fh, stride, pad)
	if err != nil {
		return nil, err
	}
	ow, padL, err := windowGeometry(w, fw, stride, pad)
	if err != nil {
		return nil, err
	}
	if dy.Shape[0] != oh || dy.Shape[1] != ow {
		return nil, fmt.Errorf("%w: dy %v does not match forward output [%d %d]", ErrShapeMismatch, dy.Shape, oh, ow)
	}

	out := New(h, w, inC)
	err = be.ParallelFor(ctx, h, func(lo, hi int) {
		for iy := lo; iy < hi; iy++ {
			for ix := 0; ix < w; ix++ {
				dst := out.Data[(iy*w+ix)*inC : (iy*w+ix+1)*inC]
				for fy := 0; fy < fh; fy++ {
					ty := iy + padT - fy
					if ty < 0 || ty%stride != 0 {
						continue
					}
					oy := ty / stride
					if oy >= oh {
						continue
					}
					for fx := 0; fx < fw; fx++ {
						tx := ix + padL - fx
						if tx < 0 || tx%stride != 0 {
							continue
						}
						ox := tx / stride
						if ox >= ow {
							continue
						}
						src := dy.Data[(oy*ow+ox)*outC : (oy*ow+ox+1)*outC]
						for c := range dst {
							wOff := ((fy*fw+fx)*inC + c) * outC
							var acc float32
							for d, g := range src {
								acc += g * filter.Data[wOff+d]
							}
							dst[c] += acc
						}
					}
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DepthwiseConv2D convolves each channel of x [h, w, c] with its own filters
// from [fh, fw, c, mul], producing [oh, ow, c*mul].
func DepthwiseConv2D(ctx context.Context, be Backend, x, filter *Tensor, stride int, pad Padding) (*Tensor, error) {
	if err := requireRank("x", x, 3); err != nil {
		return nil, err
	}
	if err := requireRank("filter", filter, 4); err != nil {
		return nil, err
	}
	h, w, inC := x.Shape[0], x.Shape[1], x.Shape[2]
	fh, fw, fc, mul := filter.Shape[0], filter.Shape[1], filter.Shape[2], filter.Shape[3]
	if fc != inC {
		return nil, fmt.Errorf("%w: depthwise input depth %d, filter depth %d", ErrShapeMismatch, inC, fc)
	}
	oh, padT, err := windowGeometry(h, fh, stride, pad)
	if err != nil {
		return nil, err
	}
	ow, padL, err := windowGeometry(w, fw, stride, pad)
	if err != nil {
		return nil, err
	}

	outC := inC * mul
	out := New(oh, ow, outC)
	err = be.ParallelFor(ctx, oh, func(lo, hi int) {
		for oy := lo; oy < hi; oy++ {
			for ox := 0; ox < ow; ox++ {
				dst := out.Data[(oy*ow+ox)*outC : (oy*ow+ox+1)*outC]
				for fy := 0; fy < fh; fy++ {
					iy := oy*stride + fy - padT
					if iy < 0 || iy >= h {
						continue
					}
					for fx := 0; fx < fw; fx++ {
						ix := ox*stride + fx - padL
						if ix < 0 || ix >= w {
							continue
						}
						src := x.Data[(iy*w+ix)*inC : (iy*w+ix+1)*inC]
						wBase := (fy*fw + fx) * inC * mul
						for c, xv := range src {
							for m := 0; m < mul; m++ {
								dst[c*mul+m] += xv * filter.Data[wBase+c*mul+m]
							}
						}
					}
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
