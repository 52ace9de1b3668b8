// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

func backends() []tensor.Backend {
	return []tensor.Backend{tensor.CPU(), tensor.GPU(2)}
}

var (
	convBase  = benchmark.ConvParams{InDepth: 2, FilterSize: 3, Stride: 1, Pad: benchmark.PadSame}
	regConv   = benchmark.RegularConvParams{ConvParams: convBase, OutDepth: 3}
	depthConv = benchmark.DepthwiseConvParams{ConvParams: convBase, ChannelMul: 2}
	poolRec   = benchmark.PoolParams{Depth: 2, FieldSize: 2, Stride: 2}
)

func TestBenchmarks_RunEveryOption(t *testing.T) {
	ctx := context.Background()
	for _, be := range backends() {
		t.Run(be.Name(), func(t *testing.T) {
			cases := []struct {
				name  string
				test  benchmark.Test
				trial benchmark.Trial
			}{
				{"matmul", NewMatmulBenchmark(be), benchmark.Trial{Size: 8}},
				{"batchnorm", NewBatchNorm3DBenchmark(be), benchmark.Trial{Size: 5}},
				{"conv regular", NewConvBenchmark(be), benchmark.Trial{Size: 6, Option: ConvRegular, Params: regConv}},
				{"conv transposed", NewConvBenchmark(be), benchmark.Trial{Size: 6, Option: ConvTransposed, Params: &regConv}},
				{"conv depthwise", NewConvBenchmark(be), benchmark.Trial{Size: 6, Option: ConvDepthwise, Params: depthConv}},
				{"pool max", NewPoolBenchmark(be), benchmark.Trial{Size: 4, Option: PoolMax, Params: poolRec}},
				{"pool avg", NewPoolBenchmark(be), benchmark.Trial{Size: 5, Option: PoolAvg, Params: poolRec}},
			}
			for _, opt := range UnaryOptions() {
				cases = append(cases, struct {
					name  string
					test  benchmark.Test
					trial benchmark.Trial
				}{"unary " + opt, NewUnaryOpsBenchmark(be), benchmark.Trial{Size: 4, Option: opt, Params: benchmark.ElementwiseParams{Rank: 2}}})
			}
			for _, opt := range ReductionOptions() {
				cases = append(cases, struct {
					name  string
					test  benchmark.Test
					trial benchmark.Trial
				}{"reduction " + opt, NewReductionOpsBenchmark(be), benchmark.Trial{Size: 4, Option: opt, Params: benchmark.ReductionParams{Rank: 1}}})
			}

			for _, tc := range cases {
				_, err := tc.test.Run(ctx, tc.trial)
				assert.NoError(t, err, tc.name)
			}
		})
	}
}

func TestBenchmarks_InvalidSize(t *testing.T) {
	ctx := context.Background()
	tests := []benchmark.Test{
		NewMatmulBenchmark(tensor.CPU()),
		NewBatchNorm3DBenchmark(tensor.CPU()),
		NewConvBenchmark(tensor.CPU()),
		NewPoolBenchmark(tensor.CPU()),
		NewUnaryOpsBenchmark(tensor.CPU()),
		NewReductionOpsBenchmark(tensor.CPU()),
	}
	for _, test := range tests {
		_, err := test.Run(ctx, benchmark.Trial{Size: 0, Option: "max"})
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestBenchmarks_UnknownOption(t *testing.T) {
	ctx := context.Background()
	tests := map[string]benchmark.Test{
		"conv":      NewConvBenchmark(tensor.CPU()),
		"pool":      NewPoolBenchmark(tensor.CPU()),
		"unary":     NewUnaryOpsBenchmark(tensor.CPU()),
		"reduction": NewReductionOpsBenchmark(tensor.CPU()),
	}
	for name, test := range tests {
		_, err := test.Run(ctx, benchmark.Trial{Size: 4, Option: "gelu"})
		assert.ErrorIs(t, err, benchmark.ErrUnknownOption, name)
	}
}

func TestBenchmarks_BadParams(t *testing.T) {
	ctx := context.Background()
	badPad := regConv
	badPad.Pad = "reflect"
	zeroStride := poolRec
	zeroStride.Stride = 0

	cases := []struct {
		name  string
		test  benchmark.Test
		trial benchmark.Trial
	}{
		{"conv wrong record", NewConvBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: ConvRegular, Params: depthConv}},
		{"conv nil pointer", NewConvBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: ConvRegular, Params: (*benchmark.RegularConvParams)(nil)}},
		{"conv bad pad", NewConvBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: ConvTransposed, Params: badPad}},
		{"pool missing record", NewPoolBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: PoolMax}},
		{"pool zero stride", NewPoolBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: PoolMax, Params: zeroStride}},
		{"unary rank 3", NewUnaryOpsBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: "log", Params: benchmark.ElementwiseParams{Rank: 3}}},
		{"reduction wrong record", NewReductionOpsBenchmark(tensor.CPU()), benchmark.Trial{Size: 4, Option: "sum", Params: poolRec}},
	}
	for _, tc := range cases {
		_, err := tc.test.Run(ctx, tc.trial)
		assert.ErrorIs(t, err, ErrBadParams, tc.name)
	}
}

func TestBenchmarks_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMatmulBenchmark(tensor.GPU(0)).Run(ctx, benchmark.Trial{Size: 4})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBenchmarks_DefaultRanks(t *testing.T) {
	ctx := context.Background()
	_, err := NewUnaryOpsBenchmark(tensor.CPU()).Run(ctx, benchmark.Trial{Size: 3, Option: "exp"})
	require.NoError(t, err)
	_, err = NewReductionOpsBenchmark(tensor.CPU()).Run(ctx, benchmark.Trial{Size: 3, Option: "argMin"})
	require.NoError(t, err)
}

func TestBenchmarks_Backend(t *testing.T) {
	assert.Equal(t, "cpu", NewMatmulBenchmark(tensor.CPU()).Backend().Name())
	assert.Equal(t, "gpu", NewMatmulBenchmark(tensor.GPU(0)).Backend().Name())
	assert.Equal(t, "gpu", NewPoolBenchmark(tensor.GPU(0)).Backend().Name())
}

func TestTimed_TimeoutExcludesSetup(t *testing.T) {
	o := &opTest{backend: tensor.CPU()}
	trial := benchmark.Trial{Size: 1, Timeout: 50 * time.Millisecond}

	// Slow setup followed by a fast op stays within the bound.
	time.Sleep(100 * time.Millisecond)
	_, err := o.timed(context.Background(), trial, func(ctx context.Context) (*tensor.Tensor, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return tensor.New(1), nil
	})
	require.NoError(t, err)
}

func TestTimed_OpPastDeadline(t *testing.T) {
	o := &opTest{backend: tensor.CPU()}
	trial := benchmark.Trial{Size: 1, Timeout: 10 * time.Millisecond}

	// The op ignores ctx and still returns a tensor.
	_, err := o.timed(context.Background(), trial, func(ctx context.Context) (*tensor.Tensor, error) {
		<-ctx.Done()
		return tensor.New(1), nil
	})
	require.ErrorIs(t, err, benchmark.ErrTrialTimeout)
	assert.Contains(t, err.Error(), "after 10ms")
}

func TestTimed_ParentCanceledIsNotTimeout(t *testing.T) {
	o := &opTest{backend: tensor.CPU()}
	ctx, cancel := context.WithCancel(context.Background())
	trial := benchmark.Trial{Size: 1, Timeout: time.Minute}

	_, err := o.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		cancel()
		return tensor.New(1), nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, benchmark.ErrTrialTimeout)
}

func TestMatmul_CPUKernelStopsAtTimeout(t *testing.T) {
	_, err := NewMatmulBenchmark(tensor.CPU()).Run(context.Background(),
		benchmark.Trial{Size: 512, Timeout: time.Millisecond})
	require.ErrorIs(t, err, benchmark.ErrTrialTimeout)
	assert.Contains(t, err.Error(), "after 1ms")
}
