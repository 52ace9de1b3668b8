// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tensor

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// UnaryOp names an element-wise operation.
type UnaryOp string

const (
	// LeakyReluAlpha is the negative slope of leakyRelu.
	LeakyReluAlpha = 0.2
	// PreluAlpha is the learned slope prelu is benchmarked with.
	PreluAlpha = 0.25

	seluScale = 1.0507009873554804934193349852946
	seluAlpha = 1.6732632423543772848170429916717
)

type unaryDef struct {
	fn func(float64) float64
	// lo and hi bound the inputs the op is defined on.
	lo, hi float32
}

var unaryOps = map[UnaryOp]unaryDef{
	"abs":        {fn: math.Abs, lo: -1, hi: 1},
	"acos":       {fn: math.Acos, lo: -0.99, hi: 0.99},
	"acosh":      {fn: math.Acosh, lo: 1, hi: 10},
	"asin":       {fn: math.Asin, lo: -0.99, hi: 0.99},
	"asinh":      {fn: math.Asinh, lo: -1, hi: 1},
	"atan":       {fn: math.Atan, lo: -1, hi: 1},
	"atanh":      {fn: math.Atanh, lo: -0.99, hi: 0.99},
	"ceil":       {fn: math.Ceil, lo: -10, hi: 10},
	"cos":        {fn: math.Cos, lo: -1, hi: 1},
	"cosh":       {fn: math.Cosh, lo: -1, hi: 1},
	"elu":        {fn: elu, lo: -1, hi: 1},
	"erf":        {fn: math.Erf, lo: -1, hi: 1},
	"exp":        {fn: math.Exp, lo: -1, hi: 1},
	"expm1":      {fn: math.Expm1, lo: -1, hi: 1},
	"floor":      {fn: math.Floor, lo: -10, hi: 10},
	"leakyRelu":  {fn: leaky(LeakyReluAlpha), lo: -1, hi: 1},
	"log":        {fn: math.Log, lo: 0.01, hi: 10},
	"log1p":      {fn: math.Log1p, lo: 0, hi: 10},
	"logSigmoid": {fn: logSigmoid, lo: -1, hi: 1},
	"neg":        {fn: func(x float64) float64 { return -x }, lo: -1, hi: 1},
	"prelu":      {fn: leaky(PreluAlpha), lo: -1, hi: 1},
	"reciprocal": {fn: func(x float64) float64 { return 1 / x }, lo: 0.01, hi: 10},
	"relu":       {fn: func(x float64) float64 { return math.Max(x, 0) }, lo: -1, hi: 1},
	"round":      {fn: math.RoundToEven, lo: -10, hi: 10},
	"rsqrt":      {fn: func(x float64) float64 { return 1 / math.Sqrt(x) }, lo: 0.01, hi: 10},
	"selu":       {fn: selu, lo: -1, hi: 1},
	"sigmoid":    {fn: sigmoid, lo: -1, hi: 1},
	"sign":       {fn: sign, lo: -1, hi: 1},
	"sin":        {fn: math.Sin, lo: -1, hi: 1},
	"sinh":       {fn: math.Sinh, lo: -1, hi: 1},
	"softplus":   {fn: softplus, lo: -1, hi: 1},
	"sqrt":       {fn: math.Sqrt, lo: 0, hi: 10},
	"square":     {fn: func(x float64) float64 { return x * x }, lo: -1, hi: 1},
	"step":       {fn: step, lo: -1, hi: 1},
	"tan":        {fn: math.Tan, lo: -1, hi: 1},
	"tanh":       {fn: math.Tanh, lo: -1, hi: 1},
}

// UnaryOps lists every supported element-wise op, sorted.
func UnaryOps() []UnaryOp {
	ops := make([]UnaryOp, 0, len(unaryOps))
	for op := range unaryOps {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Domain returns the input range op is benchmarked on.
func (op UnaryOp) Domain() (lo, hi float32, err error) {
	def, ok := unaryOps[op]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unary %q", ErrUnknownOp, op)
	}
	return def.lo, def.hi, nil
}

// Apply evaluates op on a single value.
func (op UnaryOp) Apply(x float32) (float32, error) {
	def, ok := unaryOps[op]
	if !ok {
		return 0, fmt.Errorf("%w: unary %q", ErrUnknownOp, op)
	}
	return float32(def.fn(float64(x))), nil
}

// Unary applies op element-wise, returning a tensor of the same shape.
func Unary(ctx context.Context, be Backend, op UnaryOp, x *Tensor) (*Tensor, error) {
	def, ok := unaryOps[op]
	if !ok {
		return nil, fmt.Errorf("%w: unary %q", ErrUnknownOp, op)
	}
	if x == nil {
		return nil, fmt.Errorf("%w: x is nil", ErrInvalidShape)
	}

	out := New(x.Shape...)
	err := be.ParallelFor(ctx, x.Size(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.Data[i] = float32(def.fn(float64(x.Data[i])))
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func elu(x float64) float64 {
	if x >= 0 {
		return x
	}
	return math.Expm1(x)
}

func selu(x float64) float64 {
	if x >= 0 {
		return seluScale * x
	}
	return seluScale * seluAlpha * math.Expm1(x)
}

func leaky(alpha float64) func(float64) float64 {
	return func(x float64) float64 {
		if x >= 0 {
			return x
		}
		return alpha * x
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logSigmoid(x float64) float64 {
	return -softplus(-x)
}

func softplus(x float64) float64 {
	if x > 20 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func step(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}
