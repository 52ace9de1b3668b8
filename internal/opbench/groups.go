// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// =============================================================================
// OPTION CATALOGUES
// =============================================================================

// ConvOptions lists the convolution variants in display order.
func ConvOptions() []string {
	return []string{ConvRegular, ConvTransposed, ConvDepthwise}
}

// PoolOptions lists the pooling variants in display order.
func PoolOptions() []string {
	return []string{PoolMax, PoolAvg}
}

// UnaryOptions lists the 36 element-wise ops in display order.
func UnaryOptions() []string {
	return []string{
		"abs", "acos", "acosh", "asin", "asinh", "atan",
		"atanh", "ceil", "cos", "cosh", "elu", "erf",
		"exp", "expm1", "floor", "leakyRelu", "log", "log1p",
		"logSigmoid", "neg", "prelu", "reciprocal", "relu", "round",
		"rsqrt", "selu", "sigmoid", "sign", "sin", "sinh",
		"softplus", "sqrt", "square", "step", "tan", "tanh",
	}
}

// ReductionOptions lists the reductions in display order.
func ReductionOptions() []string {
	return []string{"max", "min", "argMax", "argMin", "sum", "logSumExp"}
}

// =============================================================================
// RUN GROUPS
// =============================================================================

// Backends are the two implementations every group compares.
type Backends struct {
	CPU tensor.Backend
	GPU tensor.Backend
}

// DefaultBackends uses the inline CPU backend and a GPU backend sized to
// GOMAXPROCS.
func DefaultBackends() Backends {
	return Backends{CPU: tensor.CPU(), GPU: tensor.GPU(0)}
}

// GetRunGroups returns the benchmark catalogue on the default backends.
func GetRunGroups() []benchmark.RunGroup {
	return BuildRunGroups(DefaultBackends())
}

// BuildRunGroups returns a freshly allocated catalogue bound to be. Nothing in
// the result is shared with earlier calls.
func BuildRunGroups(be Backends) []benchmark.RunGroup {
	groups := make([]benchmark.RunGroup, 0, 6)

	groups = append(groups, benchmark.RunGroup{
		Name:       "Batch Normalization 3D: input [size, size, 8]",
		Min:        0,
		Max:        512,
		StepSize:   64,
		StepToSize: benchmark.StepFloor(1),
		Runs: []*benchmark.Run{
			benchmark.NewRun("batchnorm3d_gpu", NewBatchNorm3DBenchmark(be.GPU)),
			benchmark.NewRun("batchnorm3d_cpu", NewBatchNorm3DBenchmark(be.CPU)),
		},
		Params: map[string]any{},
	})

	groups = append(groups, benchmark.RunGroup{
		Name:       "Matrix Multiplication: matmul([size, size], [size, size])",
		Min:        0,
		Max:        1024,
		StepSize:   64,
		StepToSize: benchmark.StepFloor(1),
		Runs: []*benchmark.Run{
			benchmark.NewRun("mulmat_gpu", NewMatmulBenchmark(be.GPU)),
			benchmark.NewRun("mulmat_cpu", NewMatmulBenchmark(be.CPU)),
		},
		Params: map[string]any{},
	})

	conv := benchmark.ConvParams{InDepth: 8, FilterSize: 7, Stride: 1, Pad: benchmark.PadSame}
	regular := benchmark.RegularConvParams{ConvParams: conv, OutDepth: 3}
	depthwise := benchmark.DepthwiseConvParams{ConvParams: conv, ChannelMul: 1}
	groups = append(groups, benchmark.RunGroup{
		Name:           "Convolution ops [size, size, depth]",
		Min:            0,
		Max:            1024,
		StepSize:       64,
		StepToSize:     benchmark.StepFloor(1),
		Options:        ConvOptions(),
		SelectedOption: ConvRegular,
		Runs: []*benchmark.Run{
			benchmark.NewRun("conv_gpu", NewConvBenchmark(be.GPU)),
		},
		Params: map[string]any{
			ConvRegular:    regular,
			ConvTransposed: regular,
			ConvDepthwise:  depthwise,
		},
	})

	pool := benchmark.PoolParams{Depth: 8, FieldSize: 4, Stride: 4}
	groups = append(groups, benchmark.RunGroup{
		Name:           "Pool Ops: input [size, size]",
		Min:            0,
		Max:            1024,
		StepSize:       64,
		StepToSize:     benchmark.StepFloor(4),
		Options:        PoolOptions(),
		SelectedOption: PoolMax,
		Runs: []*benchmark.Run{
			benchmark.NewRun("pool_gpu", NewPoolBenchmark(be.GPU)),
			benchmark.NewRun("pool_cpu", NewPoolBenchmark(be.CPU)),
		},
		Params: map[string]any{PoolMax: pool, PoolAvg: pool},
	})

	unary := UnaryOptions()
	groups = append(groups, benchmark.RunGroup{
		Name:           "Unary Ops: input [size, size]",
		Min:            0,
		Max:            1024,
		StepSize:       64,
		StepToSize:     benchmark.StepFloor(1),
		Options:        unary,
		SelectedOption: "log",
		Runs: []*benchmark.Run{
			benchmark.NewRun("unary ops CPU", NewUnaryOpsBenchmark(be.CPU)),
			benchmark.NewRun("unary ops GPU", NewUnaryOpsBenchmark(be.GPU)),
		},
		Params: paramsPerOption(unary, benchmark.ElementwiseParams{Rank: 2}),
	})

	reductions := ReductionOptions()
	groups = append(groups, benchmark.RunGroup{
		Name:           "Reduction Ops: input [size * size]",
		Min:            0,
		Max:            1024,
		StepSize:       64,
		StepToSize:     benchmark.StepFloor(1),
		Options:        reductions,
		SelectedOption: "max",
		Runs: []*benchmark.Run{
			benchmark.NewRun("reduction ops CPU", NewReductionOpsBenchmark(be.CPU)),
			benchmark.NewRun("reduction ops GPU", NewReductionOpsBenchmark(be.GPU)),
		},
		Params: paramsPerOption(reductions, benchmark.ReductionParams{Rank: 1}),
	})

	return groups
}

func paramsPerOption(options []string, record any) map[string]any {
	params := make(map[string]any, len(options))
	for _, opt := range options {
		params[opt] = record
	}
	return params
}
