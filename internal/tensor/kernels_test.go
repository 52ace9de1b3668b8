// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustData(t *testing.T, data []float32, shape ...int) *Tensor {
	t.Helper()
	x, err := FromData(data, shape...)
	require.NoError(t, err)
	return x
}

// =============================================================================
// MATMUL
// =============================================================================

func TestMatMul(t *testing.T) {
	a := mustData(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := mustData(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	out, err := MatMul(context.Background(), CPU(), a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, out.Shape)
	assert.Equal(t, []float32{58, 64, 139, 154}, out.Data)

	_, err = MatMul(context.Background(), CPU(), a, a)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = MatMul(context.Background(), CPU(), New(3), b)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

// =============================================================================
// CONVOLUTION
// =============================================================================

func naiveConv(x, f *Tensor, stride, padT, padL, oh, ow int) []float32 {
	h, w, inC := x.Shape[0], x.Shape[1], x.Shape[2]
	fh, fw, outC := f.Shape[0], f.Shape[1], f.Shape[3]
	out := make([]float32, oh*ow*outC)
	for oy := 0; oy < oh; oy++ {
		for ox := 0; ox < ow; ox++ {
			for d := 0; d < outC; d++ {
				var acc float32
				for fy := 0; fy < fh; fy++ {
					for fx := 0; fx < fw; fx++ {
						for c := 0; c < inC; c++ {
							iy, ix := oy*stride+fy-padT, ox*stride+fx-padL
							if iy < 0 || iy >= h || ix < 0 || ix >= w {
								continue
							}
							acc += x.Data[(iy*w+ix)*inC+c] * f.Data[((fy*fw+fx)*inC+c)*outC+d]
						}
					}
				}
				out[(oy*ow+ox)*outC+d] = acc
			}
		}
	}
	return out
}

func TestWindowGeometry(t *testing.T) {
	out, before, err := windowGeometry(5, 3, 1, PadSame)
	require.NoError(t, err)
	assert.Equal(t, 5, out)
	assert.Equal(t, 1, before)

	out, before, err = windowGeometry(8, 4, 4, PadSame)
	require.NoError(t, err)
	assert.Equal(t, 2, out)
	assert.Equal(t, 0, before)

	out, _, err = windowGeometry(5, 3, 2, PadValid)
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	_, _, err = windowGeometry(2, 3, 1, PadValid)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, _, err = windowGeometry(2, 3, 1, Padding("reflect"))
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, _, err = windowGeometry(2, 3, 0, PadSame)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestConv2D_MatchesNaive(t *testing.T) {
	rng := NewRand(3)
	x := RandUniform(rng, -1, 1, 6, 5, 2)
	f := RandUniform(rng, -1, 1, 3, 3, 2, 4)

	out, err := Conv2D(context.Background(), CPU(), x, f, 1, PadSame)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5, 4}, out.Shape)
	assert.InDeltaSlice(t, naiveConv(x, f, 1, 1, 1, 6, 5), out.Data, 1e-5)

	out, err = Conv2D(context.Background(), CPU(), x, f, 2, PadValid)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 4}, out.Shape)
	assert.InDeltaSlice(t, naiveConv(x, f, 2, 0, 0, 2, 2), out.Data, 1e-5)

	_, err = Conv2D(context.Background(), CPU(), x, New(3, 3, 5, 4), 1, PadSame)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

// The transpose must be the adjoint of the forward convolution:
// <conv(x), dy> == <x, convT(dy)>.
func TestConv2DTranspose_IsAdjoint(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name   string
		stride int
		pad    Padding
	}{
		{"same stride 1", 1, PadSame},
		{"same stride 2", 2, PadSame},
		{"valid stride 2", 2, PadValid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rng := NewRand(11)
			x := RandUniform(rng, -1, 1, 7, 7, 3)
			f := RandUniform(rng, -1, 1, 3, 3, 3, 2)

			y, err := Conv2D(ctx, CPU(), x, f, tc.stride, tc.pad)
			require.NoError(t, err)
			dy := RandUniform(rng, -1, 1, y.Shape...)

			dx, err := Conv2DTranspose(ctx, CPU(), dy, f, [3]int{7, 7, 3}, tc.stride, tc.pad)
			require.NoError(t, err)
			assert.Equal(t, x.Shape, dx.Shape)

			var lhs, rhs float64
			for i := range y.Data {
				lhs += float64(y.Data[i]) * float64(dy.Data[i])
			}
			for i := range x.Data {
				rhs += float64(x.Data[i]) * float64(dx.Data[i])
			}
			assert.InDelta(t, lhs, rhs, 1e-3)
		})
	}
}

func TestConv2DTranspose_ShapeErrors(t *testing.T) {
	f := New(3, 3, 8, 3)
	_, err := Conv2DTranspose(context.Background(), CPU(), New(4, 4, 3), f, [3]int{5, 5, 8}, 1, PadSame)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = Conv2DTranspose(context.Background(), CPU(), New(4, 4, 2), f, [3]int{4, 4, 8}, 1, PadSame)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDepthwiseConv2D(t *testing.T) {
	rng := NewRand(5)
	x := RandUniform(rng, -1, 1, 5, 5, 2)
	f := RandUniform(rng, -1, 1, 3, 3, 2, 1)

	out, err := DepthwiseConv2D(context.Background(), CPU(), x, f, 1, PadSame)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 5, 2}, out.Shape)

	// With a multiplier of 1, each channel is an independent 1-channel conv.
	for c := 0; c < 2; c++ {
		xc := New(5, 5, 1)
		fc := New(3, 3, 1, 1)
		for i := 0; i < 25; i++ {
			xc.Data[i] = x.Data[i*2+c]
		}
		for i := 0; i < 9; i++ {
			fc.Data[i] = f.Data[i*2+c]
		}
		want := naiveConv(xc, fc, 1, 1, 1, 5, 5)
		for i := 0; i < 25; i++ {
			assert.InDelta(t, want[i], out.Data[i*2+c], 1e-5)
		}
	}
}

// =============================================================================
// POOLING
// =============================================================================

func TestPool(t *testing.T) {
	// 4x4 single channel, values 0..15.
	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i)
	}
	x := mustData(t, data, 4, 4, 1)
	ctx := context.Background()

	out, err := MaxPool(ctx, CPU(), x, 2, 2, PadValid)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, out.Shape)
	assert.Equal(t, []float32{5, 7, 13, 15}, out.Data)

	out, err = AvgPool(ctx, CPU(), x, 2, 2, PadValid)
	require.NoError(t, err)
	assert.Equal(t, []float32{2.5, 4.5, 10.5, 12.5}, out.Data)

	// Same padding with a 3x3 window at stride 3 pads one row and column on
	// each side; the average ignores them.
	out, err = AvgPool(ctx, CPU(), x, 3, 3, PadSame)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, out.Shape)
	assert.InDelta(t, 2.5, out.Data[0], 1e-6)
	assert.InDelta(t, 12.5, out.Data[3], 1e-6)

	out, err = MaxPool(ctx, CPU(), x, 3, 3, PadSame)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 7, 13, 15}, out.Data)
}

// =============================================================================
// UNARY
// =============================================================================

func TestUnaryOps_Registry(t *testing.T) {
	ops := UnaryOps()
	assert.Len(t, ops, 36)
	for _, op := range ops {
		lo, hi, err := op.Domain()
		require.NoError(t, err)
		assert.Less(t, lo, hi, string(op))

		x := RandUniform(NewRand(1), lo, hi, 64)
		out, err := Unary(context.Background(), CPU(), op, x)
		require.NoError(t, err, string(op))
		for _, v := range out.Data {
			assert.False(t, math.IsNaN(float64(v)), "%s produced NaN inside its domain", op)
		}
	}
}

func TestUnaryOp_Apply(t *testing.T) {
	tests := []struct {
		op   UnaryOp
		in   float32
		want float32
	}{
		{"abs", -2, 2},
		{"neg", 3, -3},
		{"relu", -1, 0},
		{"leakyRelu", -1, -0.2},
		{"prelu", -2, -0.5},
		{"step", 0, 0},
		{"step", 0.1, 1},
		{"sign", -0.5, -1},
		{"round", 2.5, 2},
		{"round", 3.5, 4},
		{"square", 3, 9},
		{"reciprocal", 4, 0.25},
		{"rsqrt", 4, 0.5},
		{"elu", 0, 0},
	}
	for _, tt := range tests {
		got, err := tt.op.Apply(tt.in)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-6, "%s(%v)", tt.op, tt.in)
	}

	_, err := UnaryOp("gelu").Apply(1)
	assert.ErrorIs(t, err, ErrUnknownOp)
	_, _, err = UnaryOp("gelu").Domain()
	assert.ErrorIs(t, err, ErrUnknownOp)
	_, err = Unary(context.Background(), CPU(), "gelu", New(1))
	assert.ErrorIs(t, err, ErrUnknownOp)
}

// =============================================================================
// REDUCTION
// =============================================================================

func TestReduce(t *testing.T) {
	x := mustData(t, []float32{3, -1, 7, 7, 2, -1}, 6)
	ctx := context.Background()

	tests := []struct {
		op   ReduceOp
		want float32
	}{
		{ReduceMax, 7},
		{ReduceMin, -1},
		{ReduceArgMax, 2},
		{ReduceArgMin, 1},
		{ReduceSum, 17},
	}
	for _, tt := range tests {
		out, err := Reduce(ctx, GPU(2), tt.op, x)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, out.Shape)
		assert.Equal(t, tt.want, out.Data[0], string(tt.op))
	}

	out, err := Reduce(ctx, CPU(), ReduceLogSumExp, x)
	require.NoError(t, err)
	var want float64
	for _, v := range x.Data {
		want += math.Exp(float64(v))
	}
	assert.InDelta(t, math.Log(want), float64(out.Data[0]), 1e-5)

	_, err = Reduce(ctx, CPU(), "mean", x)
	assert.ErrorIs(t, err, ErrUnknownOp)
	_, err = Reduce(ctx, CPU(), ReduceSum, New(0))
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestReduce_ArgMaxAcrossBlocks(t *testing.T) {
	x := New(1000)
	x.Data[999] = 5
	x.Data[500] = 5
	out, err := Reduce(context.Background(), GPU(4), ReduceArgMax, x)
	require.NoError(t, err)
	assert.Equal(t, float32(500), out.Data[0])
}

// =============================================================================
// BATCH NORM
// =============================================================================

func TestBatchNorm3D(t *testing.T) {
	x := mustData(t, []float32{1, 10, 3, 20}, 1, 2, 2)
	mean := mustData(t, []float32{2, 15}, 2)
	variance := mustData(t, []float32{1 - BatchNormEpsilon, 25 - BatchNormEpsilon}, 2)
	offset := mustData(t, []float32{0, 1}, 2)
	scale := mustData(t, []float32{2, 1}, 2)

	out, err := BatchNorm3D(context.Background(), CPU(), x, mean, variance, offset, scale)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{-2, 0, 2, 2}, out.Data, 1e-5)

	out, err = BatchNorm3D(context.Background(), CPU(), x, mean, variance, nil, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{-1, -1, 1, 1}, out.Data, 1e-5)

	_, err = BatchNorm3D(context.Background(), CPU(), x, New(3), variance, nil, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

// =============================================================================
// BACKEND EQUIVALENCE
// =============================================================================

func TestCPUAndGPUAgree(t *testing.T) {
	ctx := context.Background()
	cpu, gpu := CPU(), GPU(4)
	rng := NewRand(99)

	x := RandUniform(rng, 0.1, 1, 9, 9, 4)
	a := RandUniform(rng, -1, 1, 17, 13)
	b := RandUniform(rng, -1, 1, 13, 9)
	f := RandUniform(rng, -1, 1, 3, 3, 4, 2)
	flat := RandUniform(rng, -1, 1, 300)
	ch := RandUniform(rng, 0.5, 1, 4)

	kernels := map[string]func(be Backend) (*Tensor, error){
		"matmul": func(be Backend) (*Tensor, error) { return MatMul(ctx, be, a, b) },
		"conv2d": func(be Backend) (*Tensor, error) { return Conv2D(ctx, be, x, f, 1, PadSame) },
		"conv2dTranspose": func(be Backend) (*Tensor, error) {
			dy := RandUniform(NewRand(1), -1, 1, 9, 9, 2)
			return Conv2DTranspose(ctx, be, dy, f, [3]int{9, 9, 4}, 1, PadSame)
		},
		"depthwise": func(be Backend) (*Tensor, error) { return DepthwiseConv2D(ctx, be, x, f, 2, PadSame) },
		"maxPool":   func(be Backend) (*Tensor, error) { return MaxPool(ctx, be, x, 3, 2, PadSame) },
		"avgPool":   func(be Backend) (*Tensor, error) { return AvgPool(ctx, be, x, 3, 2, PadSame) },
		"log":       func(be Backend) (*Tensor, error) { return Unary(ctx, be, "log", x) },
		"logSumExp": func(be Backend) (*Tensor, error) { return Reduce(ctx, be, ReduceLogSumExp, flat) },
		"batchNorm": func(be Backend) (*Tensor, error) { return BatchNorm3D(ctx, be, x, ch, ch, ch, ch) },
	}

	for name, kernel := range kernels {
		t.Run(name, func(t *testing.T) {
			want, err := kernel(cpu)
			require.NoError(t, err)
			got, err := kernel(gpu)
			require.NoError(t, err)
			assert.Equal(t, want.Shape, got.Shape)
			assert.Equal(t, want.Data, got.Data)
		})
	}
}

func TestOutputSize(t *testing.T) {
	out, err := OutputSize(1024, 4, 4, PadSame)
	require.NoError(t, err)
	assert.Equal(t, 256, out)

	out, err = OutputSize(4, 4, 4, PadValid)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}
