// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package opbench

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/opbench/internal/benchmark"
	"github.com/jeranaias/opbench/internal/tensor"
)

// Convolution variants.
const (
	ConvRegular    = "regular"
	ConvTransposed = "transposed"
	ConvDepthwise  = "depthwise"
)

// ConvBenchmark times a convolution over a [size, size, inDepth] input. The
// option picks the variant; regular and transposed take RegularConvParams,
// depthwise takes DepthwiseConvParams.
type ConvBenchmark struct {
	opTest
}

// NewConvBenchmark returns a convolution test on be.
func NewConvBenchmark(be tensor.Backend) *ConvBenchmark {
	return &ConvBenchmark{opTest{backend: be}}
}

// Run implements benchmark.Test.
func (b *ConvBenchmark) Run(ctx context.Context, trial benchmark.Trial) (time.Duration, error) {
	if err := checkSize(trial.Size); err != nil {
		return 0, err
	}
	switch trial.Option {
	case ConvRegular, ConvTransposed:
		p, err := paramsAs[benchmark.RegularConvParams](trial.Params)
		if err != nil {
			return 0, err
		}
		if err := checkConv(p.ConvParams, map[string]int{"out_depth": p.OutDepth}); err != nil {
			return 0, err
		}
		if trial.Option == ConvRegular {
			return b.regular(ctx, trial, p)
		}
		return b.transposed(ctx, trial, p)
	case ConvDepthwise:
		p, err := paramsAs[benchmark.DepthwiseConvParams](trial.Params)
		if err != nil {
			return 0, err
		}
		if err := checkConv(p.ConvParams, map[string]int{"channel_mul": p.ChannelMul}); err != nil {
			return 0, err
		}
		return b.depthwise(ctx, trial, p)
	default:
		return 0, fmt.Errorf("%w: convolution %q", benchmark.ErrUnknownOption, trial.Option)
	}
}

func (b *ConvBenchmark) regular(ctx context.Context, trial benchmark.Trial, p benchmark.RegularConvParams) (time.Duration, error) {
	rng := b.nextRand()
	x := b.upload(rng, -1, 1, trial.Size, trial.Size, p.InDepth)
	filter := b.upload(rng, -1, 1, p.FilterSize, p.FilterSize, p.InDepth, p.OutDepth)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.Conv2D(ctx, b.backend, x, filter, p.Stride, tensor.Padding(p.Pad))
	})
}

func (b *ConvBenchmark) transposed(ctx context.Context, trial benchmark.Trial, p benchmark.RegularConvParams) (time.Duration, error) {
	pad := tensor.Padding(p.Pad)
	dySize, err := tensor.OutputSize(trial.Size, p.FilterSize, p.Stride, pad)
	if err != nil {
		return 0, fmt.Errorf("failed to size transposed convolution: %w", err)
	}
	rng := b.nextRand()
	dy := b.upload(rng, -1, 1, dySize, dySize, p.OutDepth)
	filter := b.upload(rng, -1, 1, p.FilterSize, p.FilterSize, p.InDepth, p.OutDepth)
	outShape := [3]int{trial.Size, trial.Size, p.InDepth}
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.Conv2DTranspose(ctx, b.backend, dy, filter, outShape, p.Stride, pad)
	})
}

func (b *ConvBenchmark) depthwise(ctx context.Context, trial benchmark.Trial, p benchmark.DepthwiseConvParams) (time.Duration, error) {
	rng := b.nextRand()
	x := b.upload(rng, -1, 1, trial.Size, trial.Size, p.InDepth)
	filter := b.upload(rng, -1, 1, p.FilterSize, p.FilterSize, p.InDepth, p.ChannelMul)
	return b.timed(ctx, trial, func(ctx context.Context) (*tensor.Tensor, error) {
		return tensor.DepthwiseConv2D(ctx, b.backend, x, filter, p.Stride, tensor.Padding(p.Pad))
	})
}

func checkConv(p benchmark.ConvParams, extra map[string]int) error {
	fields := map[string]int{
		"in_depth":    p.InDepth,
		"filter_size": p.FilterSize,
		"stride":      p.Stride,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := positive(fields); err != nil {
		return err
	}
	if p.Pad != benchmark.PadSame && p.Pad != benchmark.PadValid {
		return fmt.Errorf("%w: pad must be %q or %q, got %q", ErrBadParams, benchmark.PadSame, benchmark.PadValid, p.Pad)
	}
	return nil
}
